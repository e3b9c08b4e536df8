package timesheet

import (
	"math"
	"sort"
	"time"

	"toggl-float-bridge/internal/domain"
)

const quarterMinutes = 15

// RoundToQuarterHour rounds a duration in seconds to a quarter hour in
// minutes. Up to five minutes past a quarter rounds down to it; anything
// beyond rounds up to the next quarter.
func RoundToQuarterHour(seconds int64) int64 {
	minutes := float64(seconds) / 60
	remainder := math.Mod(minutes, quarterMinutes)
	if remainder <= 5 {
		minutes -= remainder
	} else {
		minutes = math.Ceil(minutes/quarterMinutes) * quarterMinutes
	}
	return int64(minutes) * 60
}

// Normalize sorts a day's entries by start time, scales each duration by the
// quote factor (clamped to 1.0, with optional quarter-hour rounding), and
// shifts start times forward so that no two entries overlap. Durations are
// preserved per entry; only starts move. The input slice is not modified.
func Normalize(entries []domain.TimeEntry, quote float64, quarters bool) []domain.TimeEntry {
	if quote <= 0 || quote > 1 {
		quote = 1
	}

	out := make([]domain.TimeEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })

	var lastEnd time.Time
	for i := range out {
		dur := int64(math.Round(float64(out[i].DurationSec) * quote))
		if quarters {
			dur = RoundToQuarterHour(dur)
		}

		start := out[i].Start
		if !lastEnd.IsZero() && start.Before(lastEnd) {
			start = lastEnd
		}
		stop := start.Add(time.Duration(dur) * time.Second)

		out[i].Start = start
		out[i].Stop = &stop
		out[i].DurationSec = dur
		lastEnd = stop
	}
	return out
}
