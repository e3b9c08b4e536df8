package domain

import "time"

// TimeEntry represents a Toggl time entry in the domain.
type TimeEntry struct {
	ID          int64
	Description string
	ProjectID   *int64
	WorkspaceID *int64
	Tags        []string
	Billable    bool
	Start       time.Time
	Stop        *time.Time
	DurationSec int64 // Negative means running in Toggl API semantics
}

// Running reports whether the entry is still being tracked.
func (e TimeEntry) Running() bool { return e.DurationSec < 0 }

// Blank reports whether the entry carries no description, project or tags.
// The timer workflow reuses such entries instead of starting a new one.
func (e TimeEntry) Blank() bool {
	return e.Description == "" && e.ProjectID == nil && len(e.Tags) == 0
}
