package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"toggl-float-bridge/internal/domain"
	"toggl-float-bridge/internal/ports"
	"toggl-float-bridge/internal/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boundedPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, Retryable: ports.IsRetryable}
}

func TestSyncCreatesMissingMirror(t *testing.T) {
	toggl := newFakeToggl()
	float := &fakeFloat{
		projects: []domain.FloatProject{{ID: 5, Name: "Acme", Color: "0b83d9", Active: true}},
	}
	sink := &fakeSink{}

	o := NewSyncOrchestrator(toggl, float, nil, sink, testLogger()).WithPolicy(boundedPolicy(3))
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if o.State() != StateComplete {
		t.Fatalf("state = %v, want Complete", o.State())
	}

	if len(toggl.created) != 1 {
		t.Fatalf("created %d projects, want 1", len(toggl.created))
	}
	if got := toggl.created[0].Name; got != "Acme [5]" {
		t.Errorf("created name = %q, want %q", got, "Acme [5]")
	}
	if got := toggl.created[0].Color; got != "#0b83d9" {
		t.Errorf("created color = %q, want %q", got, "#0b83d9")
	}
	if !sink.hasLine("🎉 Sync Complete.") {
		t.Error("missing completion line")
	}
}

func TestSyncConvergesOnSecondRun(t *testing.T) {
	toggl := newFakeToggl()
	float := &fakeFloat{
		projects: []domain.FloatProject{{ID: 5, Name: "Acme", Active: true}},
		phases:   []domain.FloatPhase{{ID: 9, ProjectID: 5, Name: "Build", Active: true}},
	}

	first := NewSyncOrchestrator(toggl, float, nil, &fakeSink{}, testLogger()).WithPolicy(boundedPolicy(3))
	if err := first.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(toggl.created) != 2 {
		t.Fatalf("first run created %d, want 2", len(toggl.created))
	}

	toggl.created = nil
	second := NewSyncOrchestrator(toggl, float, nil, &fakeSink{}, testLogger()).WithPolicy(boundedPolicy(3))
	if err := second.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(toggl.created) != 0 || len(toggl.updated) != 0 || len(toggl.deleted) != 0 {
		t.Errorf("second run not convergent: create=%d update=%d delete=%d",
			len(toggl.created), len(toggl.updated), len(toggl.deleted))
	}
}

func TestSyncDeletesStaleMirror(t *testing.T) {
	toggl := newFakeToggl()
	toggl.projects = []domain.MirrorProject{
		{ID: 1, Name: "Gone [99]", Active: true},
		{ID: 2, Name: "Personal stuff", Active: true}, // never synced, untouched
	}
	float := &fakeFloat{}
	sink := &fakeSink{}

	o := NewSyncOrchestrator(toggl, float, nil, sink, testLogger()).WithPolicy(boundedPolicy(3))
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(toggl.deleted) != 1 || toggl.deleted[0] != 1 {
		t.Errorf("deleted = %v, want [1]", toggl.deleted)
	}
}

func TestSyncWorkspaceFailureAbortsBeforeWrites(t *testing.T) {
	toggl := newFakeToggl()
	toggl.workspaceErr = &ports.APIError{Status: 403, Body: "forbidden"}
	float := &fakeFloat{
		projects: []domain.FloatProject{{ID: 5, Name: "Acme", Active: true}},
	}

	o := NewSyncOrchestrator(toggl, float, nil, &fakeSink{}, testLogger())
	if err := o.Run(context.Background()); err == nil {
		t.Fatal("want error")
	}
	if o.State() != StateFailed {
		t.Errorf("state = %v, want Failed", o.State())
	}
	if len(toggl.created) != 0 {
		t.Errorf("created %d projects after fatal workspace error", len(toggl.created))
	}
}

func TestSyncRetriesTransientWriteFailures(t *testing.T) {
	toggl := newFakeToggl()
	toggl.failures["create"] = 2
	toggl.failErr = &ports.APIError{Status: 429, Body: "slow down"}
	float := &fakeFloat{
		projects: []domain.FloatProject{{ID: 5, Name: "Acme", Active: true}},
	}
	sink := &fakeSink{}

	o := NewSyncOrchestrator(toggl, float, nil, sink, testLogger()).WithPolicy(boundedPolicy(5))
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(toggl.created) != 1 {
		t.Fatalf("created %d projects, want 1", len(toggl.created))
	}
	if len(sink.errors) != 2 {
		t.Errorf("logged %d error lines, want one per failed attempt (2)", len(sink.errors))
	}
}

func TestSyncAuthFailureIsFinal(t *testing.T) {
	toggl := newFakeToggl()
	toggl.failures["create"] = 1
	toggl.failErr = &ports.APIError{Status: 403, Body: "forbidden"}
	float := &fakeFloat{
		projects: []domain.FloatProject{{ID: 5, Name: "Acme", Active: true}},
	}

	o := NewSyncOrchestrator(toggl, float, nil, &fakeSink{}, testLogger())
	err := o.Run(context.Background())
	if err == nil {
		t.Fatal("want error")
	}
	if !ports.IsAuth(err) {
		t.Errorf("error %v not classified as auth", err)
	}
	if o.State() != StateFailed {
		t.Errorf("state = %v, want Failed", o.State())
	}
}

func TestSyncBoundedPolicyTerminates(t *testing.T) {
	toggl := newFakeToggl()
	toggl.failures["create"] = 100
	toggl.failErr = errors.New("network down")
	float := &fakeFloat{
		projects: []domain.FloatProject{{ID: 5, Name: "Acme", Active: true}},
	}

	o := NewSyncOrchestrator(toggl, float, nil, &fakeSink{}, testLogger()).WithPolicy(boundedPolicy(3))
	if err := o.Run(context.Background()); err == nil {
		t.Fatal("want error after attempt budget exhausted")
	}
}

func TestSyncCreatesMissingTags(t *testing.T) {
	toggl := newFakeToggl()
	toggl.tags = []domain.Tag{{ID: 1, Name: "Review"}}
	float := &fakeFloat{
		tasks: []domain.FloatTask{
			{TaskMetaID: 1, Name: "Review"},
			{TaskMetaID: 2, Name: "Development"},
		},
	}

	o := NewSyncOrchestrator(toggl, float, nil, &fakeSink{}, testLogger()).WithPolicy(boundedPolicy(3))
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(toggl.createdTags) != 1 || toggl.createdTags[0] != "Development" {
		t.Errorf("createdTags = %v, want [Development]", toggl.createdTags)
	}
}

func TestSyncArchivesProjectSnapshot(t *testing.T) {
	toggl := newFakeToggl()
	float := &fakeFloat{
		projects: []domain.FloatProject{{ID: 5, Name: "Acme", Active: true}},
	}
	archive := &fakeArchive{}

	o := NewSyncOrchestrator(toggl, float, archive, &fakeSink{}, testLogger()).WithPolicy(boundedPolicy(3))
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(archive.projects) != 1 {
		t.Fatalf("archive received %d snapshots, want 1", len(archive.projects))
	}
	if len(archive.projects[0]) != 1 {
		t.Errorf("snapshot has %d projects, want 1", len(archive.projects[0]))
	}
}
