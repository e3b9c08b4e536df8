package domain

import "time"

// MirrorProject is a project record in Toggl that shadows a Float project or
// phase. The canonical Float id is embedded in Name by the codec package.
type MirrorProject struct {
	ID          int64
	WorkspaceID int64
	Name        string
	Active      bool
	Private     bool
	Color       string
	ClientID    *int64
	At          time.Time // Last update timestamp from Toggl
}

// Workspace is the Toggl workspace all writes are scoped to.
type Workspace struct {
	ID   int64
	Name string
}

// Tag is a Toggl workspace tag, unique by name (case-sensitive).
type Tag struct {
	ID   int64
	Name string
}

// ProjectPayload is the body for Toggl project create/update calls.
// Update always carries the full current name/color/active state.
type ProjectPayload struct {
	Name   string
	Color  string // "#rrggbb", empty to omit
	Active bool
}
