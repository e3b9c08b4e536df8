// Package timesheet holds the calendar and duration math shared by the sync
// and upload workflows: day bucketing, gap detection between systems, and
// overlap-free normalization of a day's entries.
package timesheet

import (
	"sort"
	"time"
)

// DayOf returns midnight UTC of t's calendar date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayString formats a day as YYYY-MM-DD.
func DayString(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Gaps returns the dates in [start, end) that have recorded time in Toggl
// but no logged-time record in Float, ascending.
//
// The rule is kept exactly as shipped: the candidate set is "dates with no
// Float entry", filtered down to "dates present in the Toggl set". The
// filter direction looks inverted relative to the apparent intent, but
// downstream output depends on it; see DESIGN.md before changing it.
func Gaps(start, end time.Time, floatDays, togglDays []time.Time) []time.Time {
	logged := make(map[string]struct{}, len(floatDays))
	for _, d := range floatDays {
		logged[DayString(d)] = struct{}{}
	}
	recorded := make(map[string]struct{}, len(togglDays))
	for _, d := range togglDays {
		recorded[DayString(d)] = struct{}{}
	}

	var gaps []time.Time
	for d := DayOf(start); d.Before(DayOf(end)); d = d.AddDate(0, 0, 1) {
		key := DayString(d)
		if _, ok := logged[key]; ok {
			continue
		}
		if _, ok := recorded[key]; !ok {
			continue
		}
		gaps = append(gaps, d)
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].Before(gaps[j]) })
	return gaps
}

// DistinctDays collapses timestamps to their calendar dates, deduplicated,
// in first-seen order.
func DistinctDays(stamps []time.Time) []time.Time {
	seen := make(map[string]struct{}, len(stamps))
	var days []time.Time
	for _, s := range stamps {
		d := DayOf(s)
		key := DayString(d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, d)
	}
	return days
}
