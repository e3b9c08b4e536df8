package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"toggl-float-bridge/internal/codec"
	"toggl-float-bridge/internal/domain"
	"toggl-float-bridge/internal/ports"
	"toggl-float-bridge/internal/timesheet"
)

// secondsSavedPerEntry is the gamification estimate of manual bookkeeping
// avoided per pushed entry.
const secondsSavedPerEntry = 30

// EntryPusher copies one day's Toggl entries into Float as logged time.
type EntryPusher struct {
	toggl    ports.TogglClient
	float    ports.FloatClient
	archive  ports.Archive // nil disables archiving
	settings ports.SettingsStore
	sink     ports.LogSink
	log      *slog.Logger
	personID int64
}

func NewEntryPusher(toggl ports.TogglClient, float ports.FloatClient, archive ports.Archive, settings ports.SettingsStore, sink ports.LogSink, log *slog.Logger, personID int64) *EntryPusher {
	return &EntryPusher{
		toggl:    toggl,
		float:    float,
		archive:  archive,
		settings: settings,
		sink:     sink,
		log:      log,
		personID: personID,
	}
}

// Run pushes the given date's entries. The whole push is refused when Float
// already has logged time on that date, so a repeated invocation can never
// double-log a day. Entries without a decodable mirror project also refuse
// the push, listing the offenders, since a partial day in Float would be
// indistinguishable from a complete one.
func (p *EntryPusher) Run(ctx context.Context, date time.Time) error {
	day := timesheet.DayOf(date)

	existing, err := p.float.ListLoggedTime(ctx, day, day, p.personID)
	if err != nil {
		return fmt.Errorf("fetching Float logged time: %w", err)
	}
	if len(existing) > 0 {
		p.sink.Error(fmt.Sprintf("Float already has %d logged entries on %s; not pushing again.", len(existing), timesheet.DayString(day)))
		return nil
	}

	entries, err := p.toggl.ListTimeEntries(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("fetching Toggl entries: %w", err)
	}
	if len(entries) == 0 {
		p.sink.Log(fmt.Sprintf("No Toggl entries on %s. Do you even work?", timesheet.DayString(day)))
		return nil
	}

	mirrors, err := p.toggl.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("fetching Toggl projects: %w", err)
	}
	phases, err := p.float.ListPhases(ctx)
	if err != nil {
		return fmt.Errorf("fetching Float phases: %w", err)
	}
	tasks, err := p.float.ListTasks(ctx, domain.TaskFilter{PersonID: p.personID})
	if err != nil {
		return fmt.Errorf("fetching Float tasks: %w", err)
	}

	logged, unresolved := buildLoggedTime(entries, mirrors, phases, tasks, p.personID, day)
	if len(unresolved) > 0 {
		p.sink.Error("Some entries have no linked Float project; fix them and push again:")
		for _, desc := range unresolved {
			p.sink.Error("  " + desc)
		}
		return nil
	}

	for i, lt := range logged {
		p.sink.Log(fmt.Sprintf("Posting (%d/%d): %s", i+1, len(logged), lt.Notes))
		if err := p.float.PostLoggedTime(ctx, lt); err != nil {
			p.sink.Error(err.Error())
			return fmt.Errorf("posting logged time: %w", err)
		}
	}

	if p.archive != nil {
		if err := p.archive.RecordLoggedTime(ctx, logged); err != nil {
			p.log.Warn("archive write failed", slog.String("error", err.Error()))
		}
	}

	p.sink.Log(fmt.Sprintf("💯 Uploaded all time entries for %s to Float!", timesheet.DayString(day)))
	p.celebrate(len(logged))
	return nil
}

// celebrate bumps the persistent uploaded-entries counter and reports the
// estimated bookkeeping time saved so far.
func (p *EntryPusher) celebrate(pushed int) {
	total, err := p.settings.AddUploadedEntries(pushed)
	if err != nil {
		p.log.Warn("could not persist uploaded-entries counter", slog.String("error", err.Error()))
		return
	}
	saved := total * secondsSavedPerEntry
	switch {
	case saved > 3600:
		p.sink.Log(fmt.Sprintf("You have saved %.2fh of manual logging so far.", float64(saved)/3600))
	case saved > 60:
		p.sink.Log(fmt.Sprintf("You have saved %d minutes of manual logging so far.", int(math.Round(float64(saved)/60))))
	default:
		p.sink.Log(fmt.Sprintf("You have saved %d seconds of manual logging so far.", saved))
	}
}

// buildLoggedTime converts Toggl entries to Float logged-time records. The
// canonical id decoded from the entry's mirror project name resolves to
// either a phase (yielding that phase's project plus the phase id) or a
// project. Entries whose project cannot be resolved are returned in the
// second list by description.
func buildLoggedTime(entries []domain.TimeEntry, mirrors []domain.MirrorProject, phases []domain.FloatPhase, tasks []domain.FloatTask, personID int64, day time.Time) ([]domain.LoggedTime, []string) {
	mirrorByID := make(map[int64]domain.MirrorProject, len(mirrors))
	for _, m := range mirrors {
		mirrorByID[m.ID] = m
	}
	phaseByID := make(map[int64]domain.FloatPhase, len(phases))
	for _, ph := range phases {
		phaseByID[ph.ID] = ph
	}
	taskByName := make(map[string]domain.FloatTask, len(tasks))
	for _, t := range tasks {
		taskByName[t.Name] = t
	}

	var logged []domain.LoggedTime
	var unresolved []string
	for _, e := range entries {
		canonical, ok := resolveCanonicalID(e, mirrorByID)
		if !ok {
			desc := e.Description
			if desc == "" {
				desc = fmt.Sprintf("(untitled entry %d)", e.ID)
			}
			unresolved = append(unresolved, desc)
			continue
		}

		lt := domain.LoggedTime{
			Date:      timesheet.DayString(day),
			Hours:     float64(e.DurationSec) / 3600,
			Notes:     e.Description,
			PersonID:  personID,
			ProjectID: canonical,
		}
		if ph, isPhase := phaseByID[canonical]; isPhase {
			phaseID := ph.ID
			lt.ProjectID = ph.ProjectID
			lt.PhaseID = &phaseID
		}
		for _, tag := range e.Tags {
			if t, ok := taskByName[tag]; ok {
				taskID := t.TaskID
				metaID := t.TaskMetaID
				lt.TaskID = &taskID
				lt.TaskMetaID = &metaID
				lt.TaskName = t.Name
				break
			}
		}
		logged = append(logged, lt)
	}
	return logged, unresolved
}

func resolveCanonicalID(e domain.TimeEntry, mirrorByID map[int64]domain.MirrorProject) (int64, bool) {
	if e.ProjectID == nil {
		return 0, false
	}
	mirror, ok := mirrorByID[*e.ProjectID]
	if !ok {
		return 0, false
	}
	return codec.Decode(mirror.Name)
}
