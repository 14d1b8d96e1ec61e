package archive

import (
	"testing"
	"time"

	lodelib "github.com/justapithecus/lode/lode"

	"github.com/omakasem/draftstream/lode"
	"github.com/omakasem/draftstream/types"
)

func TestUpdateSession_WritesDraft(t *testing.T) {
	store := lodelib.NewMemory()
	factory := func() (lodelib.Store, error) { return store, nil }

	archive, err := lode.NewArchiveWithFactory(lode.Config{Source: "test"}, factory)
	if err != nil {
		t.Fatalf("NewArchiveWithFactory: %v", err)
	}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a, err := New(archive, WithClock(func() time.Time { return at }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = a.Close() }()

	update := &types.SessionUpdate{
		SessionID:        "s-1",
		PlannerSessionID: "planner-1",
		Status:           types.StatusReady,
		Draft: &types.CoursePlan{
			Title: "Go 입문",
			Epics: []types.Epic{{EpicID: "epic_0", WeekNumber: 1, Title: "기초", Stories: []types.Story{}}},
		},
	}
	if err := a.UpdateSession(t.Context(), update); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	ds, err := lode.NewReadDataset("", factory)
	if err != nil {
		t.Fatalf("NewReadDataset: %v", err)
	}
	rec, err := lode.LatestDraft(t.Context(), ds, "s-1")
	if err != nil {
		t.Fatalf("LatestDraft: %v", err)
	}
	if rec.Title != "Go 입문" || rec.Source != "test" || rec.Day != "2026-03-01" {
		t.Errorf("unexpected record: %+v", rec.DraftSummary)
	}
}

func TestUpdateSession_RejectsMissingDraft(t *testing.T) {
	archive, err := lode.NewArchiveWithFactory(lode.Config{}, lodelib.NewMemoryFactory())
	if err != nil {
		t.Fatalf("NewArchiveWithFactory: %v", err)
	}
	a, err := New(archive)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.UpdateSession(t.Context(), &types.SessionUpdate{SessionID: "s-1"}); err == nil {
		t.Fatal("expected error for update without draft")
	}
}

func TestNew_RequiresArchive(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil archive")
	}
}
