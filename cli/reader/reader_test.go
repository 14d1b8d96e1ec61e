package reader

import (
	"errors"
	"testing"
	"time"

	lodelib "github.com/justapithecus/lode/lode"

	"github.com/omakasem/draftstream/lode"
	"github.com/omakasem/draftstream/metrics"
	"github.com/omakasem/draftstream/types"
)

func seededReader(t *testing.T) *Reader {
	t.Helper()

	store := lodelib.NewMemory()
	factory := func() (lodelib.Store, error) { return store, nil }

	archive, err := lode.NewArchiveWithFactory(lode.Config{}, factory)
	if err != nil {
		t.Fatalf("NewArchiveWithFactory: %v", err)
	}

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, u := range []*types.SessionUpdate{
		{SessionID: "s-1", Status: types.StatusReady, Draft: &types.CoursePlan{Title: "Go", Epics: []types.Epic{{EpicID: "epic_0", WeekNumber: 1, Title: "기초"}}}},
		{SessionID: "s-2", Status: types.StatusReady, Draft: &types.CoursePlan{Title: "Rust"}},
		{SessionID: "s-1", Status: types.StatusEnriched, Draft: &types.CoursePlan{Title: "Go", Epics: []types.Epic{{EpicID: "epic_0", WeekNumber: 1, Title: "기초", Stories: []types.Story{{StoryID: "story_0_0", Title: "변수"}}}}}},
	} {
		if err := archive.WriteDraft(t.Context(), u, at.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("WriteDraft: %v", err)
		}
	}

	c := metrics.NewCollector("draft", "redis", "s-1")
	c.IncSessionStarted()
	c.IncSessionCompleted()
	if err := archive.WriteMetrics(t.Context(), c.Snapshot(), types.OutcomeCompleted, at.Add(time.Hour)); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}

	ds, err := lode.NewReadDataset("", factory)
	if err != nil {
		t.Fatalf("NewReadDataset: %v", err)
	}
	return New(ds)
}

func TestReader_ListDrafts(t *testing.T) {
	r := seededReader(t)

	all, err := r.ListDrafts(t.Context(), ListOptions{})
	if err != nil {
		t.Fatalf("ListDrafts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d drafts, want 3", len(all))
	}
	if all[0].SessionID != "s-1" || all[0].Status != types.StatusEnriched {
		t.Errorf("newest first: got %s/%s", all[0].SessionID, all[0].Status)
	}

	enriched, err := r.ListDrafts(t.Context(), ListOptions{Status: string(types.StatusEnriched)})
	if err != nil {
		t.Fatalf("ListDrafts: %v", err)
	}
	if len(enriched) != 1 {
		t.Errorf("status filter: got %d, want 1", len(enriched))
	}

	limited, err := r.ListDrafts(t.Context(), ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListDrafts: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: got %d, want 2", len(limited))
	}
}

func TestReader_InspectDraft(t *testing.T) {
	r := seededReader(t)

	rec, err := r.InspectDraft(t.Context(), "s-1")
	if err != nil {
		t.Fatalf("InspectDraft: %v", err)
	}
	if rec.Status != types.StatusEnriched {
		t.Errorf("Status = %s, want latest (enriched)", rec.Status)
	}
	if got := rec.Plan.StoryCount(); got != 1 {
		t.Errorf("StoryCount = %d, want 1", got)
	}

	if _, err := r.InspectDraft(t.Context(), "missing"); !errors.Is(err, lode.ErrNoDraftFound) {
		t.Errorf("missing session: err = %v, want ErrNoDraftFound", err)
	}
}

func TestReader_SessionStats(t *testing.T) {
	r := seededReader(t)

	stats, err := r.SessionStats(t.Context(), "s-1")
	if err != nil {
		t.Fatalf("SessionStats: %v", err)
	}
	if stats.Outcome != string(types.OutcomeCompleted) {
		t.Errorf("Outcome = %q", stats.Outcome)
	}
	if stats.SessionsCompleted != 1 || stats.PersistBackend != "redis" {
		t.Errorf("unexpected snapshot: %+v", stats.Snapshot)
	}

	if _, err := r.SessionStats(t.Context(), "s-2"); !errors.Is(err, lode.ErrNoMetricsFound) {
		t.Errorf("err = %v, want ErrNoMetricsFound", err)
	}
}

func TestOpen_Validation(t *testing.T) {
	if _, err := Open(t.Context(), Source{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("empty path: err = %v, want ErrNoSource", err)
	}
	if _, err := Open(t.Context(), Source{Backend: "gcs", Path: "x"}); err == nil {
		t.Error("expected error for unsupported backend")
	}
	if _, err := Open(t.Context(), Source{Path: t.TempDir()}); err != nil {
		t.Errorf("fs backend: %v", err)
	}
}
