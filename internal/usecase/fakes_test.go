package usecase

import (
	"context"
	"sync"
	"time"

	"toggl-float-bridge/internal/domain"
)

// fakeToggl is an in-memory TogglClient. Create/update/delete mutate the
// project list so orchestrator re-runs observe the applied state.
type fakeToggl struct {
	workspace    domain.Workspace
	workspaceErr error

	entries  []domain.TimeEntry
	projects []domain.MirrorProject
	tags     []domain.Tag

	nextProjectID int64

	// failures maps an operation name to the number of times it should
	// fail with the given error before succeeding.
	failures map[string]int
	failErr  error

	created        []domain.ProjectPayload
	updated        map[int64]domain.ProjectPayload
	deleted        []int64
	createdTags    []string
	entryMoves     map[int64]int64
	current        *domain.TimeEntry
	started        []int64
	assigned       []int64
	assignedTarget int64
}

func newFakeToggl() *fakeToggl {
	return &fakeToggl{
		workspace:     domain.Workspace{ID: 77, Name: "ws"},
		nextProjectID: 1000,
		failures:      map[string]int{},
		updated:       map[int64]domain.ProjectPayload{},
		entryMoves:    map[int64]int64{},
	}
}

func (f *fakeToggl) maybeFail(op string) error {
	if f.failures[op] > 0 {
		f.failures[op]--
		return f.failErr
	}
	return nil
}

func (f *fakeToggl) Workspace(context.Context) (domain.Workspace, error) {
	if f.workspaceErr != nil {
		return domain.Workspace{}, f.workspaceErr
	}
	return f.workspace, nil
}

func (f *fakeToggl) ListTimeEntries(_ context.Context, from, to time.Time) ([]domain.TimeEntry, error) {
	var out []domain.TimeEntry
	for _, e := range f.entries {
		if !e.Start.Before(from) && e.Start.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeToggl) ListProjects(context.Context) ([]domain.MirrorProject, error) {
	out := make([]domain.MirrorProject, len(f.projects))
	copy(out, f.projects)
	return out, nil
}

func (f *fakeToggl) CreateProject(_ context.Context, workspaceID int64, p domain.ProjectPayload) error {
	if err := f.maybeFail("create"); err != nil {
		return err
	}
	f.created = append(f.created, p)
	f.nextProjectID++
	f.projects = append(f.projects, domain.MirrorProject{
		ID:          f.nextProjectID,
		WorkspaceID: workspaceID,
		Name:        p.Name,
		Active:      p.Active,
		Color:       p.Color,
	})
	return nil
}

func (f *fakeToggl) UpdateProject(_ context.Context, _, projectID int64, p domain.ProjectPayload) error {
	if err := f.maybeFail("update"); err != nil {
		return err
	}
	f.updated[projectID] = p
	for i := range f.projects {
		if f.projects[i].ID == projectID {
			f.projects[i].Name = p.Name
			f.projects[i].Active = p.Active
			f.projects[i].Color = p.Color
		}
	}
	return nil
}

func (f *fakeToggl) DeleteProject(_ context.Context, _, projectID int64) error {
	if err := f.maybeFail("delete"); err != nil {
		return err
	}
	f.deleted = append(f.deleted, projectID)
	kept := f.projects[:0]
	for _, p := range f.projects {
		if p.ID != projectID {
			kept = append(kept, p)
		}
	}
	f.projects = kept
	return nil
}

func (f *fakeToggl) ListTags(context.Context) ([]domain.Tag, error) {
	return f.tags, nil
}

func (f *fakeToggl) CreateTag(_ context.Context, _ int64, name string) error {
	if err := f.maybeFail("tag"); err != nil {
		return err
	}
	f.createdTags = append(f.createdTags, name)
	f.tags = append(f.tags, domain.Tag{ID: int64(len(f.tags) + 1), Name: name})
	return nil
}

func (f *fakeToggl) UpdateTimeEntryProject(_ context.Context, _, entryID, projectID int64) error {
	if err := f.maybeFail("move"); err != nil {
		return err
	}
	f.entryMoves[entryID] = projectID
	return nil
}

func (f *fakeToggl) CurrentTimeEntry(context.Context) (*domain.TimeEntry, error) {
	return f.current, nil
}

func (f *fakeToggl) StartTimer(_ context.Context, _, projectID int64, _ string) error {
	f.started = append(f.started, projectID)
	return nil
}

func (f *fakeToggl) AssignRunningEntry(_ context.Context, _, entryID, projectID int64, _ string) error {
	f.assigned = append(f.assigned, entryID)
	f.assignedTarget = projectID
	return nil
}

// fakeFloat is an in-memory FloatClient.
type fakeFloat struct {
	people   []domain.Person
	projects []domain.FloatProject
	phases   []domain.FloatPhase
	tasks    []domain.FloatTask
	logged   []domain.LoggedTime

	postErr error
	posted  []domain.LoggedTime
}

func (f *fakeFloat) ListPeople(context.Context) ([]domain.Person, error) {
	return f.people, nil
}

func (f *fakeFloat) ListProjects(context.Context) ([]domain.FloatProject, error) {
	return f.projects, nil
}

func (f *fakeFloat) ListPhases(context.Context) ([]domain.FloatPhase, error) {
	return f.phases, nil
}

func (f *fakeFloat) ListTasks(context.Context, domain.TaskFilter) ([]domain.FloatTask, error) {
	return f.tasks, nil
}

func (f *fakeFloat) ListLoggedTime(_ context.Context, from, to time.Time, _ int64) ([]domain.LoggedTime, error) {
	fromStr := from.Format(time.DateOnly)
	toStr := to.Format(time.DateOnly)
	var out []domain.LoggedTime
	for _, lt := range f.logged {
		if lt.Date >= fromStr && lt.Date <= toStr {
			out = append(out, lt)
		}
	}
	return out, nil
}

func (f *fakeFloat) PostLoggedTime(_ context.Context, entry domain.LoggedTime) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, entry)
	return nil
}

// fakeAtlassian is an in-memory AtlassianClient.
type fakeAtlassian struct {
	worklogs    map[string]int // "ISSUE|YYYY-MM-DD" -> count
	denied      map[string]bool
	posted      []postedWorklog
	postErr     map[string]error
	permissions int
}

type postedWorklog struct {
	issueID string
	started time.Time
	seconds int64
	comment string
}

func newFakeAtlassian() *fakeAtlassian {
	return &fakeAtlassian{
		worklogs: map[string]int{},
		denied:   map[string]bool{},
		postErr:  map[string]error{},
	}
}

func (f *fakeAtlassian) WorklogCount(_ context.Context, issueID string, day time.Time) (int, error) {
	return f.worklogs[issueID+"|"+day.Format(time.DateOnly)], nil
}

func (f *fakeAtlassian) HasPermission(_ context.Context, issueID string) (bool, error) {
	f.permissions++
	return !f.denied[issueID], nil
}

func (f *fakeAtlassian) PostWorklog(_ context.Context, issueID string, started time.Time, seconds int64, comment string) error {
	if err := f.postErr[issueID]; err != nil {
		return err
	}
	f.posted = append(f.posted, postedWorklog{issueID: issueID, started: started, seconds: seconds, comment: comment})
	return nil
}

// fakeSink records the emitted progress stream.
type fakeSink struct {
	mu     sync.Mutex
	lines  []string
	errors []string
}

func (f *fakeSink) Log(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, msg)
}

func (f *fakeSink) Error(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, msg)
}

func (f *fakeSink) hasLine(line string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lines {
		if l == line {
			return true
		}
	}
	return false
}

// fakeSettings is an in-memory SettingsStore.
type fakeSettings struct {
	personID int64
	uploaded int
}

func (f *fakeSettings) SetFloatPersonID(id int64) error { f.personID = id; return nil }

func (f *fakeSettings) AddUploadedEntries(n int) (int, error) {
	f.uploaded += n
	return f.uploaded, nil
}

// fakeArchive records archive writes.
type fakeArchive struct {
	logged   [][]domain.LoggedTime
	projects [][]domain.MirrorProject
}

func (f *fakeArchive) RecordLoggedTime(_ context.Context, entries []domain.LoggedTime) error {
	f.logged = append(f.logged, entries)
	return nil
}

func (f *fakeArchive) RecordProjects(_ context.Context, projects []domain.MirrorProject) error {
	f.projects = append(f.projects, projects)
	return nil
}
