package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"toggl-float-bridge/internal/domain"
	"toggl-float-bridge/internal/ports"
	"toggl-float-bridge/internal/timesheet"
)

// WorklogPusher submits one day's prefixed Toggl entries as Jira worklogs.
type WorklogPusher struct {
	toggl     ports.TogglClient
	atlassian ports.AtlassianClient
	sink      ports.LogSink
	log       *slog.Logger

	issuePrefix string
	quoteFactor float64
	quarters    bool

	issuePattern *regexp.Regexp
}

func NewWorklogPusher(toggl ports.TogglClient, atlassian ports.AtlassianClient, sink ports.LogSink, log *slog.Logger, issuePrefix string, quoteFactor float64, quarters bool) *WorklogPusher {
	return &WorklogPusher{
		toggl:        toggl,
		atlassian:    atlassian,
		sink:         sink,
		log:          log,
		issuePrefix:  issuePrefix,
		quoteFactor:  quoteFactor,
		quarters:     quarters,
		issuePattern: issuePattern(issuePrefix),
	}
}

func issuePattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile("(" + regexp.QuoteMeta(prefix) + `-\d+)`)
}

// Run submits the given date's entries. Entries are filtered to those whose
// description starts with the issue prefix, normalized to remove overlaps
// (applying the quote factor and optional quarter-hour rounding), and posted
// one worklog per entry. Missing WORK_ON_ISSUES permission on any touched
// issue refuses the whole run, listing the offenders; an individual post
// failure is reported and the rest continue.
func (w *WorklogPusher) Run(ctx context.Context, date time.Time) error {
	day := timesheet.DayOf(date)

	entries, err := w.toggl.ListTimeEntries(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("fetching Toggl entries: %w", err)
	}

	var prefixed []domain.TimeEntry
	for _, e := range entries {
		if strings.HasPrefix(e.Description, w.issuePrefix) {
			prefixed = append(prefixed, e)
		}
	}
	if len(prefixed) == 0 {
		w.sink.Log(fmt.Sprintf("No %s entries on %s.", w.issuePrefix, timesheet.DayString(day)))
		return nil
	}

	normalized := timesheet.Normalize(prefixed, w.quoteFactor, w.quarters)

	if err := w.checkPermissions(ctx, normalized); err != nil {
		return err
	}

	for i, e := range normalized {
		issueID, ok := w.issueID(e.Description)
		if !ok || e.DurationSec == 0 {
			continue
		}
		comment := strings.TrimSpace(strings.TrimPrefix(e.Description, issueID))
		w.sink.Log(fmt.Sprintf("Posting (%d/%d): %s", i+1, len(normalized), e.Description))
		if err := w.atlassian.PostWorklog(ctx, issueID, e.Start, e.DurationSec, comment); err != nil {
			w.sink.Error(fmt.Sprintf("Worklog for %s failed: %v", issueID, err))
			continue
		}
	}

	w.sink.Log(fmt.Sprintf("🎉 Logged work for %s.", timesheet.DayString(day)))
	return nil
}

// checkPermissions verifies WORK_ON_ISSUES on every distinct issue before
// any worklog is written, so a run never half-applies a day.
func (w *WorklogPusher) checkPermissions(ctx context.Context, entries []domain.TimeEntry) error {
	seen := make(map[string]struct{})
	var denied []string
	for _, e := range entries {
		issueID, ok := w.issueID(e.Description)
		if !ok {
			continue
		}
		if _, done := seen[issueID]; done {
			continue
		}
		seen[issueID] = struct{}{}

		allowed, err := w.atlassian.HasPermission(ctx, issueID)
		if err != nil {
			return fmt.Errorf("checking permission on %s: %w", issueID, err)
		}
		if !allowed {
			denied = append(denied, issueID)
		}
	}
	if len(denied) > 0 {
		w.sink.Error("Missing work-log permission on: " + strings.Join(denied, ", "))
		return fmt.Errorf("missing work-log permission on %d issues", len(denied))
	}
	return nil
}

// issueID extracts the first issue key from a description.
func (w *WorklogPusher) issueID(description string) (string, bool) {
	m := w.issuePattern.FindString(description)
	return m, m != ""
}
