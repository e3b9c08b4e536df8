package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"toggl-float-bridge/internal/ports"
)

// TimerStarter starts tracking time against the mirror project of a Float
// project or phase.
type TimerStarter struct {
	toggl ports.TogglClient
	sink  ports.LogSink
	log   *slog.Logger
}

func NewTimerStarter(toggl ports.TogglClient, sink ports.LogSink, log *slog.Logger) *TimerStarter {
	return &TimerStarter{toggl: toggl, sink: sink, log: log}
}

// Run starts a timer on the mirror project carrying the given canonical id.
// A currently running entry that is still blank (no description, project or
// tags) is claimed in place instead of starting a second one; anything else
// running is left alone and a new entry is started.
func (t *TimerStarter) Run(ctx context.Context, canonicalID int64, tag string) error {
	ws, err := t.toggl.Workspace(ctx)
	if err != nil {
		return fmt.Errorf("fetching workspace: %w", err)
	}
	mirrors, err := t.toggl.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("fetching Toggl projects: %w", err)
	}
	mirror, ok := findByCanonicalID(mirrors, canonicalID)
	if !ok {
		t.sink.Error(fmt.Sprintf("No Toggl project carries id %d; run a sync first.", canonicalID))
		return nil
	}

	current, err := t.toggl.CurrentTimeEntry(ctx)
	if err != nil {
		return fmt.Errorf("fetching current entry: %w", err)
	}
	if current != nil && current.Blank() {
		if err := t.toggl.AssignRunningEntry(ctx, ws.ID, current.ID, mirror.ID, tag); err != nil {
			return fmt.Errorf("assigning running entry: %w", err)
		}
		t.sink.Log(fmt.Sprintf("Claimed the running entry for %s.", mirror.Name))
		return nil
	}

	if err := t.toggl.StartTimer(ctx, ws.ID, mirror.ID, tag); err != nil {
		return fmt.Errorf("starting timer: %w", err)
	}
	t.sink.Log(fmt.Sprintf("⏱ Timer running on %s.", mirror.Name))
	return nil
}
