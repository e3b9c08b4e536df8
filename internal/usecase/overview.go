package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"toggl-float-bridge/internal/domain"
	"toggl-float-bridge/internal/ports"
	"toggl-float-bridge/internal/timesheet"
)

// workdaysPerWeek converts a Float task's per-day hours into a weekly total.
const workdaysPerWeek = 5

// TaskOverview is one scheduled task in the weekly overview.
type TaskOverview struct {
	Name      string
	PhaseName string // empty when the task sits directly on the project
	WeekHours float64
}

// ProjectOverview groups a week's tasks under their project.
type ProjectOverview struct {
	ProjectName string
	Tasks       []TaskOverview
	WeekHours   float64
}

// WeeklyOverview summarizes the configured person's Float schedule for the
// current week.
type WeeklyOverview struct {
	float    ports.FloatClient
	sink     ports.LogSink
	log      *slog.Logger
	personID int64
	now      func() time.Time
}

func NewWeeklyOverview(float ports.FloatClient, sink ports.LogSink, log *slog.Logger, personID int64) *WeeklyOverview {
	return &WeeklyOverview{
		float:    float,
		sink:     sink,
		log:      log,
		personID: personID,
		now:      time.Now,
	}
}

// Overview returns this week's tasks grouped by project, sorted by project
// name. Repeating tasks appear once; a task counts when it (or its repeat)
// is still running on or after Monday.
func (w *WeeklyOverview) Overview(ctx context.Context) ([]ProjectOverview, error) {
	monday := weekStart(w.now())
	mondayStr := timesheet.DayString(monday)

	tasks, err := w.float.ListTasks(ctx, domain.TaskFilter{
		PersonID: w.personID,
		From:     monday,
		To:       monday.AddDate(0, 0, workdaysPerWeek),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching Float tasks: %w", err)
	}
	projects, err := w.float.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching Float projects: %w", err)
	}
	phases, err := w.float.ListPhases(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching Float phases: %w", err)
	}

	projectName := make(map[int64]string, len(projects))
	for _, p := range projects {
		projectName[p.ID] = p.Name
	}
	phaseName := make(map[int64]string, len(phases))
	for _, ph := range phases {
		phaseName[ph.ID] = ph.Name
	}

	seen := make(map[int64]struct{}, len(tasks))
	byProject := make(map[int64]*ProjectOverview)
	for _, t := range tasks {
		if t.EndDate < mondayStr && (t.RepeatEndDate == "" || t.RepeatEndDate < mondayStr) {
			continue
		}
		if _, dup := seen[t.TaskMetaID]; dup {
			continue
		}
		seen[t.TaskMetaID] = struct{}{}

		ov := byProject[t.ProjectID]
		if ov == nil {
			name := projectName[t.ProjectID]
			if name == "" {
				name = fmt.Sprintf("Project %d", t.ProjectID)
			}
			ov = &ProjectOverview{ProjectName: name}
			byProject[t.ProjectID] = ov
		}
		weekHours := t.Hours * workdaysPerWeek
		ov.Tasks = append(ov.Tasks, TaskOverview{
			Name:      t.Name,
			PhaseName: phaseName[t.PhaseID],
			WeekHours: weekHours,
		})
		ov.WeekHours += weekHours
	}

	out := make([]ProjectOverview, 0, len(byProject))
	for _, ov := range byProject {
		out = append(out, *ov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectName < out[j].ProjectName })
	return out, nil
}

// Report writes the overview to the sink.
func (w *WeeklyOverview) Report(ctx context.Context) error {
	overview, err := w.Overview(ctx)
	if err != nil {
		return err
	}
	if len(overview) == 0 {
		w.sink.Log("Nothing scheduled this week.")
		return nil
	}
	for _, p := range overview {
		w.sink.Log(fmt.Sprintf("%s (%.1fh)", p.ProjectName, p.WeekHours))
		for _, t := range p.Tasks {
			label := t.Name
			if t.PhaseName != "" {
				label = t.PhaseName + " / " + label
			}
			w.sink.Log(fmt.Sprintf("  %s: %.1fh", label, t.WeekHours))
		}
	}
	return nil
}

// weekStart returns midnight UTC of the Monday of t's week.
func weekStart(t time.Time) time.Time {
	day := timesheet.DayOf(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}
