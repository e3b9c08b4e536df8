package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"toggl-float-bridge/internal/ports"
	"toggl-float-bridge/internal/timesheet"
)

// gapWindow is the trailing window the gap reports inspect.
const gapWindow = 14 * 24 * time.Hour

// GapReporter finds recent dates with tracked time that never made it into
// Float or Jira.
type GapReporter struct {
	toggl     ports.TogglClient
	float     ports.FloatClient
	atlassian ports.AtlassianClient
	sink      ports.LogSink
	log       *slog.Logger

	issuePrefix string
	personID    int64
	now         func() time.Time
}

func NewGapReporter(toggl ports.TogglClient, float ports.FloatClient, atlassian ports.AtlassianClient, sink ports.LogSink, log *slog.Logger, issuePrefix string, personID int64) *GapReporter {
	return &GapReporter{
		toggl:       toggl,
		float:       float,
		atlassian:   atlassian,
		sink:        sink,
		log:         log,
		issuePrefix: issuePrefix,
		personID:    personID,
		now:         time.Now,
	}
}

// FloatGaps returns the dates in the trailing two weeks that have Toggl
// entries but no Float logged time, ascending.
func (g *GapReporter) FloatGaps(ctx context.Context) ([]time.Time, error) {
	end := timesheet.DayOf(g.now()).AddDate(0, 0, 1)
	start := end.Add(-gapWindow)

	logged, err := g.float.ListLoggedTime(ctx, start, end, g.personID)
	if err != nil {
		return nil, fmt.Errorf("fetching Float logged time: %w", err)
	}
	entries, err := g.toggl.ListTimeEntries(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching Toggl entries: %w", err)
	}

	floatDays := make([]time.Time, 0, len(logged))
	for _, lt := range logged {
		d, err := time.Parse(time.DateOnly, lt.Date)
		if err != nil {
			continue
		}
		floatDays = append(floatDays, d)
	}
	togglDays := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		togglDays = append(togglDays, e.Start)
	}

	return timesheet.Gaps(start, end, floatDays, timesheet.DistinctDays(togglDays)), nil
}

// WorklogGaps returns the dates in the trailing two weeks that have
// prefixed Toggl entries but no worklog on any of the day's issues.
func (g *GapReporter) WorklogGaps(ctx context.Context) ([]time.Time, error) {
	end := timesheet.DayOf(g.now()).AddDate(0, 0, 1)
	start := end.Add(-gapWindow)

	entries, err := g.toggl.ListTimeEntries(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching Toggl entries: %w", err)
	}

	pattern := issuePattern(g.issuePrefix)
	issuesByDay := make(map[string]map[string]struct{})
	for _, e := range entries {
		issueID := pattern.FindString(e.Description)
		if issueID == "" {
			continue
		}
		key := timesheet.DayString(e.Start)
		if issuesByDay[key] == nil {
			issuesByDay[key] = make(map[string]struct{})
		}
		issuesByDay[key][issueID] = struct{}{}
	}

	var gaps []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		issues, ok := issuesByDay[timesheet.DayString(d)]
		if !ok {
			continue
		}
		total := 0
		for issueID := range issues {
			n, err := g.atlassian.WorklogCount(ctx, issueID, d)
			if err != nil {
				return nil, fmt.Errorf("counting worklogs on %s: %w", issueID, err)
			}
			total += n
		}
		if total == 0 {
			gaps = append(gaps, d)
		}
	}
	return gaps, nil
}

// Report runs both gap checks and writes the result to the sink. The Jira
// check only runs when the issue prefix is configured.
func (g *GapReporter) Report(ctx context.Context) error {
	floatGaps, err := g.FloatGaps(ctx)
	if err != nil {
		return err
	}
	g.sink.Log(gapLine("Float", floatGaps))

	if g.issuePrefix != "" {
		jiraGaps, err := g.WorklogGaps(ctx)
		if err != nil {
			return err
		}
		g.sink.Log(gapLine("Jira", jiraGaps))
	}
	return nil
}

func gapLine(system string, gaps []time.Time) string {
	if len(gaps) == 0 {
		return fmt.Sprintf("No missing dates in %s. 🎉", system)
	}
	days := make([]string, 0, len(gaps))
	for _, d := range gaps {
		days = append(days, timesheet.DayString(d))
	}
	return fmt.Sprintf("Missing in %s: %s", system, strings.Join(days, ", "))
}

// withNow pins the clock in tests.
func (g *GapReporter) withNow(now func() time.Time) *GapReporter {
	g.now = now
	return g
}
