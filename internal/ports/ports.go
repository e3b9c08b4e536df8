// Package ports defines the collaborator interfaces the use cases depend on.
// Concrete transports live under internal/adapter.
package ports

import (
	"context"
	"time"

	"toggl-float-bridge/internal/domain"
)

// LogSink is the append-only user-facing event stream. The UI (or CLI)
// renders the lines in emission order; the core never interprets them.
type LogSink interface {
	Log(msg string)
	Error(msg string)
}

// TogglClient talks to the Toggl Track API v9.
type TogglClient interface {
	Workspace(ctx context.Context) (domain.Workspace, error)
	ListTimeEntries(ctx context.Context, from, to time.Time) ([]domain.TimeEntry, error)
	ListProjects(ctx context.Context) ([]domain.MirrorProject, error)
	CreateProject(ctx context.Context, workspaceID int64, p domain.ProjectPayload) error
	UpdateProject(ctx context.Context, workspaceID, projectID int64, p domain.ProjectPayload) error
	DeleteProject(ctx context.Context, workspaceID, projectID int64) error
	ListTags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, workspaceID int64, name string) error
	UpdateTimeEntryProject(ctx context.Context, workspaceID, entryID, projectID int64) error
	CurrentTimeEntry(ctx context.Context) (*domain.TimeEntry, error)
	StartTimer(ctx context.Context, workspaceID, projectID int64, tag string) error
	AssignRunningEntry(ctx context.Context, workspaceID, entryID, projectID int64, tag string) error
}

// FloatClient talks to the Float API v3.
type FloatClient interface {
	ListPeople(ctx context.Context) ([]domain.Person, error)
	ListProjects(ctx context.Context) ([]domain.FloatProject, error)
	ListPhases(ctx context.Context) ([]domain.FloatPhase, error)
	ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.FloatTask, error)
	ListLoggedTime(ctx context.Context, from, to time.Time, personID int64) ([]domain.LoggedTime, error)
	PostLoggedTime(ctx context.Context, entry domain.LoggedTime) error
}

// AtlassianClient talks to the Jira Cloud REST API v3.
type AtlassianClient interface {
	WorklogCount(ctx context.Context, issueID string, day time.Time) (int, error)
	HasPermission(ctx context.Context, issueID string) (bool, error)
	PostWorklog(ctx context.Context, issueID string, started time.Time, seconds int64, comment string) error
}

// Archive persists a record of what was synced, for local reporting.
// Implementations are optional; a nil Archive disables recording.
type Archive interface {
	RecordLoggedTime(ctx context.Context, entries []domain.LoggedTime) error
	RecordProjects(ctx context.Context, projects []domain.MirrorProject) error
}

// SettingsStore is the mutable slice of the credential store the use cases
// write back to: the selected Float person and the uploaded-entries counter.
type SettingsStore interface {
	SetFloatPersonID(id int64) error
	AddUploadedEntries(n int) (total int, err error)
}
