package usecase

import (
	"context"
	"testing"
	"time"

	"toggl-float-bridge/internal/domain"
)

var pushDay = time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

func pushEntry(id, projectID int64, desc string, seconds int64, tags ...string) domain.TimeEntry {
	return domain.TimeEntry{
		ID:          id,
		Description: desc,
		ProjectID:   &projectID,
		Tags:        tags,
		Start:       pushDay.Add(9 * time.Hour),
		DurationSec: seconds,
	}
}

func TestPushConvertsEntriesToLoggedTime(t *testing.T) {
	toggl := newFakeToggl()
	toggl.projects = []domain.MirrorProject{
		{ID: 10, Name: "Acme [5]"},
		{ID: 11, Name: "Acme - Build [9]"},
	}
	toggl.entries = []domain.TimeEntry{
		pushEntry(1, 10, "writing docs", 5400),
		pushEntry(2, 11, "reviewing", 1800, "Review"),
	}
	float := &fakeFloat{
		phases: []domain.FloatPhase{{ID: 9, ProjectID: 5, Name: "Build"}},
		tasks:  []domain.FloatTask{{TaskID: 100, TaskMetaID: 200, ProjectID: 5, Name: "Review"}},
	}
	settings := &fakeSettings{}
	sink := &fakeSink{}

	p := NewEntryPusher(toggl, float, nil, settings, sink, testLogger(), 7)
	if err := p.Run(context.Background(), pushDay); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(float.posted) != 2 {
		t.Fatalf("posted %d entries, want 2", len(float.posted))
	}

	first := float.posted[0]
	if first.ProjectID != 5 || first.PhaseID != nil {
		t.Errorf("plain project entry = %+v", first)
	}
	if first.Hours != 1.5 {
		t.Errorf("hours = %v, want 1.5", first.Hours)
	}
	if first.PersonID != 7 || first.Date != "2026-08-03" {
		t.Errorf("person/date = %d/%s", first.PersonID, first.Date)
	}

	second := float.posted[1]
	if second.ProjectID != 5 || second.PhaseID == nil || *second.PhaseID != 9 {
		t.Errorf("phase entry = %+v", second)
	}
	if second.TaskID == nil || *second.TaskID != 100 || second.TaskName != "Review" {
		t.Errorf("task linkage = %+v", second)
	}
	if settings.uploaded != 2 {
		t.Errorf("uploaded counter = %d, want 2", settings.uploaded)
	}
}

func TestPushRefusesDuplicateDate(t *testing.T) {
	toggl := newFakeToggl()
	toggl.entries = []domain.TimeEntry{pushEntry(1, 10, "work", 3600)}
	float := &fakeFloat{
		logged: []domain.LoggedTime{{Date: "2026-08-03", PersonID: 7, Hours: 8}},
	}
	sink := &fakeSink{}

	p := NewEntryPusher(toggl, float, nil, &fakeSettings{}, sink, testLogger(), 7)
	if err := p.Run(context.Background(), pushDay); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(float.posted) != 0 {
		t.Errorf("posted %d entries on an already-logged day", len(float.posted))
	}
	if len(sink.errors) == 0 {
		t.Error("expected a duplicate-date warning")
	}
}

func TestPushRefusesUnresolvableProjects(t *testing.T) {
	toggl := newFakeToggl()
	toggl.projects = []domain.MirrorProject{
		{ID: 10, Name: "Acme [5]"},
		{ID: 12, Name: "Personal stuff"}, // no embedded id
	}
	toggl.entries = []domain.TimeEntry{
		pushEntry(1, 10, "good entry", 3600),
		pushEntry(2, 12, "bad entry", 1800),
	}
	float := &fakeFloat{}
	sink := &fakeSink{}

	p := NewEntryPusher(toggl, float, nil, &fakeSettings{}, sink, testLogger(), 7)
	if err := p.Run(context.Background(), pushDay); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(float.posted) != 0 {
		t.Errorf("posted %d entries despite unresolvable project", len(float.posted))
	}
	found := false
	for _, e := range sink.errors {
		if e == "  bad entry" {
			found = true
		}
	}
	if !found {
		t.Errorf("offender not listed; errors = %v", sink.errors)
	}
}

func TestPushArchivesPostedEntries(t *testing.T) {
	toggl := newFakeToggl()
	toggl.projects = []domain.MirrorProject{{ID: 10, Name: "Acme [5]"}}
	toggl.entries = []domain.TimeEntry{pushEntry(1, 10, "work", 3600)}
	float := &fakeFloat{}
	archive := &fakeArchive{}

	p := NewEntryPusher(toggl, float, archive, &fakeSettings{}, &fakeSink{}, testLogger(), 7)
	if err := p.Run(context.Background(), pushDay); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(archive.logged) != 1 || len(archive.logged[0]) != 1 {
		t.Errorf("archive writes = %+v", archive.logged)
	}
}

func TestPushNoEntries(t *testing.T) {
	toggl := newFakeToggl()
	float := &fakeFloat{}
	sink := &fakeSink{}

	p := NewEntryPusher(toggl, float, nil, &fakeSettings{}, sink, testLogger(), 7)
	if err := p.Run(context.Background(), pushDay); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sink.hasLine("No Toggl entries on 2026-08-03. Do you even work?") {
		t.Errorf("lines = %v", sink.lines)
	}
}
