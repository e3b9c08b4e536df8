// Package usecase holds the workflows the CLI triggers: the taxonomy sync
// orchestrator, the Float push, the Jira worklog submission, gap reports,
// the timer starter and the weekly overview. Every workflow takes a
// context, depends only on the port interfaces, and reports progress
// through the log sink.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"toggl-float-bridge/internal/diff"
	"toggl-float-bridge/internal/domain"
	"toggl-float-bridge/internal/palette"
	"toggl-float-bridge/internal/ports"
	"toggl-float-bridge/internal/retry"
)

// State names the orchestrator's current phase. States advance strictly in
// order; Failed is reachable from any of them.
type State int

const (
	StateIdle State = iota
	StateFetchingWorkspace
	StateDiffingTaxonomy
	StateWritingProjects
	StateSyncingTags
	StateMigratingEntries
	StateRemovingStaleProjects
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFetchingWorkspace:
		return "FetchingWorkspace"
	case StateDiffingTaxonomy:
		return "DiffingTaxonomy"
	case StateWritingProjects:
		return "WritingProjects"
	case StateSyncingTags:
		return "SyncingTags"
	case StateMigratingEntries:
		return "MigratingEntries"
	case StateRemovingStaleProjects:
		return "RemovingStaleProjects"
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// migrationWindow is how far back the entry migrator looks for entries
// still pointing at renamed or split mirror projects.
const migrationWindow = 2 * 30 * 24 * time.Hour

// SyncOrchestrator converges the Toggl project/tag mirror onto the Float
// taxonomy and repoints historical time entries at the surviving mirrors.
// One orchestrator serves one Run; state is not reset between runs.
type SyncOrchestrator struct {
	toggl   ports.TogglClient
	float   ports.FloatClient
	archive ports.Archive // nil disables archiving
	sink    ports.LogSink
	log     *slog.Logger
	policy  retry.Policy
	now     func() time.Time

	state State
}

// NewSyncOrchestrator wires an orchestrator with the default
// retry-until-success policy for mutating calls.
func NewSyncOrchestrator(toggl ports.TogglClient, float ports.FloatClient, archive ports.Archive, sink ports.LogSink, log *slog.Logger) *SyncOrchestrator {
	return &SyncOrchestrator{
		toggl:   toggl,
		float:   float,
		archive: archive,
		sink:    sink,
		log:     log,
		policy:  retry.Policy{Retryable: ports.IsRetryable},
		now:     time.Now,
		state:   StateIdle,
	}
}

// WithPolicy overrides the mutation retry policy. Tests inject a bounded
// policy to assert termination.
func (o *SyncOrchestrator) WithPolicy(p retry.Policy) *SyncOrchestrator {
	o.policy = p
	return o
}

// State returns the phase the orchestrator is currently in.
func (o *SyncOrchestrator) State() State { return o.state }

// Run executes one full sync. A workspace lookup failure aborts before any
// write; list fetch failures abort the run where they occur. Mutating calls
// are retried per item under the configured policy.
func (o *SyncOrchestrator) Run(ctx context.Context) error {
	o.state = StateFetchingWorkspace
	ws, err := o.toggl.Workspace(ctx)
	if err != nil {
		return o.fail(fmt.Errorf("fetching workspace: %w", err))
	}
	o.log.Info("workspace resolved", slog.Int64("id", ws.ID), slog.String("name", ws.Name))

	floatProjects, err := o.float.ListProjects(ctx)
	if err != nil {
		return o.fail(fmt.Errorf("fetching Float projects: %w", err))
	}
	floatPhases, err := o.float.ListPhases(ctx)
	if err != nil {
		return o.fail(fmt.Errorf("fetching Float phases: %w", err))
	}
	mirrors, err := o.toggl.ListProjects(ctx)
	if err != nil {
		return o.fail(fmt.Errorf("fetching Toggl projects: %w", err))
	}

	o.state = StateDiffingTaxonomy
	units := diff.Flatten(floatProjects, floatPhases)
	plan := diff.Taxonomy(units, mirrors)
	o.log.Info("taxonomy diffed",
		slog.Int("units", len(units)),
		slog.Int("create", len(plan.Create)),
		slog.Int("update", len(plan.Update)),
		slog.Int("delete", len(plan.Delete)),
	)

	o.state = StateWritingProjects
	if err := o.writeProjects(ctx, ws.ID, plan); err != nil {
		return o.fail(err)
	}

	o.state = StateSyncingTags
	if err := o.syncTags(ctx, ws.ID); err != nil {
		return o.fail(err)
	}

	o.state = StateMigratingEntries
	if err := o.migrateEntries(ctx, ws.ID); err != nil {
		return o.fail(err)
	}

	o.state = StateRemovingStaleProjects
	if err := o.removeStale(ctx, ws.ID, plan.Delete); err != nil {
		return o.fail(err)
	}

	if o.archive != nil {
		snapshot, err := o.toggl.ListProjects(ctx)
		if err != nil {
			o.log.Warn("archive snapshot fetch failed", slog.String("error", err.Error()))
		} else if err := o.archive.RecordProjects(ctx, snapshot); err != nil {
			o.log.Warn("archive write failed", slog.String("error", err.Error()))
		}
	}

	o.state = StateComplete
	o.sink.Log("🎉 Sync Complete.")
	return nil
}

func (o *SyncOrchestrator) writeProjects(ctx context.Context, workspaceID int64, plan diff.Result) error {
	total := len(plan.Create) + len(plan.Update)
	if total == 0 {
		return nil
	}
	done := 0
	for _, u := range plan.Create {
		payload := projectPayload(u)
		if err := o.write(ctx, func(ctx context.Context) error {
			return o.toggl.CreateProject(ctx, workspaceID, payload)
		}); err != nil {
			return fmt.Errorf("creating project %q: %w", u.DisplayName, err)
		}
		done++
		o.sink.Log(fmt.Sprintf("Progress: %d/%d", done, total))
	}
	for _, up := range plan.Update {
		payload := projectPayload(up.Unit)
		mirrorID := up.MirrorID
		if err := o.write(ctx, func(ctx context.Context) error {
			return o.toggl.UpdateProject(ctx, workspaceID, mirrorID, payload)
		}); err != nil {
			return fmt.Errorf("updating project %q: %w", up.Unit.DisplayName, err)
		}
		done++
		o.sink.Log(fmt.Sprintf("Progress: %d/%d", done, total))
	}
	o.sink.Log("🎉 Synced new Float projects to Toggl!")
	return nil
}

func (o *SyncOrchestrator) syncTags(ctx context.Context, workspaceID int64) error {
	tasks, err := o.float.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return fmt.Errorf("fetching Float tasks: %w", err)
	}
	tags, err := o.toggl.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("fetching Toggl tags: %w", err)
	}
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	missing := diff.MissingTags(names, tags)
	for i, name := range missing {
		name := name
		if err := o.write(ctx, func(ctx context.Context) error {
			return o.toggl.CreateTag(ctx, workspaceID, name)
		}); err != nil {
			return fmt.Errorf("creating tag %q: %w", name, err)
		}
		o.sink.Log(fmt.Sprintf("Progress: %d/%d", i+1, len(missing)))
	}
	if len(missing) > 0 {
		o.sink.Log("🎉 Synced Float tasks to Toggl tags!")
	}
	return nil
}

func (o *SyncOrchestrator) migrateEntries(ctx context.Context, workspaceID int64) error {
	to := o.now()
	from := to.Add(-migrationWindow)
	entries, err := o.toggl.ListTimeEntries(ctx, from, to)
	if err != nil {
		return fmt.Errorf("fetching time entries: %w", err)
	}
	// The mirror list changed during WritingProjects; migrate against the
	// current state, not the pre-sync snapshot.
	mirrors, err := o.toggl.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("fetching Toggl projects: %w", err)
	}

	migrations := PlanMigrations(entries, mirrors)
	for i, m := range migrations {
		m := m
		if err := o.write(ctx, func(ctx context.Context) error {
			return o.toggl.UpdateTimeEntryProject(ctx, workspaceID, m.EntryID, m.ProjectID)
		}); err != nil {
			return fmt.Errorf("migrating entry %d: %w", m.EntryID, err)
		}
		o.sink.Log(fmt.Sprintf("Progress: %d/%d", i+1, len(migrations)))
	}
	if len(migrations) > 0 {
		o.sink.Log(fmt.Sprintf("Migrated %d time entries to their current projects.", len(migrations)))
	}
	return nil
}

func (o *SyncOrchestrator) removeStale(ctx context.Context, workspaceID int64, stale []domain.MirrorProject) error {
	for i, m := range stale {
		m := m
		if err := o.write(ctx, func(ctx context.Context) error {
			return o.toggl.DeleteProject(ctx, workspaceID, m.ID)
		}); err != nil {
			return fmt.Errorf("deleting project %q: %w", m.Name, err)
		}
		o.sink.Log(fmt.Sprintf("Progress: %d/%d", i+1, len(stale)))
	}
	if len(stale) > 0 {
		o.sink.Log("Removed stale Toggl projects.")
	}
	return nil
}

// write runs one mutating remote call under the retry policy, emitting an
// error line per failed attempt.
func (o *SyncOrchestrator) write(ctx context.Context, fn func(context.Context) error) error {
	return o.policy.Do(ctx, func(err error) {
		o.sink.Error(err.Error())
	}, fn)
}

func (o *SyncOrchestrator) fail(err error) error {
	o.state = StateFailed
	o.sink.Error(err.Error())
	return err
}

// projectPayload builds the Toggl create/update body for a sync unit,
// quantizing the Float color to the nearest Toggl swatch. A malformed color
// is omitted rather than failing the item.
func projectPayload(u domain.SyncUnit) domain.ProjectPayload {
	p := domain.ProjectPayload{Name: u.DisplayName, Active: u.Active}
	if hex, ok := palette.ClosestToggl(u.ColorHex); ok {
		p.Color = hex
	}
	return p
}
