package reader

import (
	"strings"
	"testing"
)

func TestParseMetricsRecord(t *testing.T) {
	// JSON-round-tripped record (float64 values)
	record := map[string]any{
		"record_kind":              "metrics",
		"ts":                       "2026-03-01T09:00:00Z",
		"outcome":                  "completed",
		"session_id":               "s-1",
		"mode":                     "draft",
		"persist_backend":          "redis",
		"sessions_started_total":   float64(1),
		"sessions_completed_total": float64(1),
		"bytes_read_total":         float64(2048),
		"content_deltas_total":     float64(37),
		"dropped_lines_total":      float64(2),
		"persist_success_total":    int64(1),
		"lode_write_success_total": 3,
	}

	parsed, err := ParseMetricsRecord(record)
	if err != nil {
		t.Fatalf("ParseMetricsRecord failed: %v", err)
	}

	if parsed.Ts != "2026-03-01T09:00:00Z" {
		t.Errorf("Ts = %q", parsed.Ts)
	}
	if parsed.Outcome != "completed" {
		t.Errorf("Outcome = %q, want completed", parsed.Outcome)
	}
	if parsed.SessionsCompleted != 1 {
		t.Errorf("SessionsCompleted = %d, want 1", parsed.SessionsCompleted)
	}
	if parsed.BytesRead != 2048 {
		t.Errorf("BytesRead = %d, want 2048", parsed.BytesRead)
	}
	if parsed.ContentDeltas != 37 {
		t.Errorf("ContentDeltas = %d, want 37", parsed.ContentDeltas)
	}
	if parsed.DroppedLines != 2 {
		t.Errorf("DroppedLines = %d, want 2", parsed.DroppedLines)
	}
	if parsed.PersistSuccess != 1 {
		t.Errorf("PersistSuccess = %d, want 1", parsed.PersistSuccess)
	}
	if parsed.LodeWriteSuccess != 3 {
		t.Errorf("LodeWriteSuccess = %d, want 3", parsed.LodeWriteSuccess)
	}
	if parsed.Mode != "draft" || parsed.PersistBackend != "redis" {
		t.Errorf("dimensions = %q/%q", parsed.Mode, parsed.PersistBackend)
	}
}

func TestParseMetricsRecord_Nil(t *testing.T) {
	if _, err := ParseMetricsRecord(nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}

func TestParseMetricsRecord_MissingRequiredFields(t *testing.T) {
	base := map[string]any{
		"ts":         "2026-03-01T09:00:00Z",
		"session_id": "s-1",
		"outcome":    "failed",
	}

	for _, field := range []string{"ts", "session_id", "outcome"} {
		t.Run(field, func(t *testing.T) {
			record := make(map[string]any, len(base))
			for k, v := range base {
				record[k] = v
			}
			delete(record, field)

			_, err := ParseMetricsRecord(record)
			if err == nil {
				t.Fatalf("expected error when %s is missing", field)
			}
			if !strings.Contains(err.Error(), field) {
				t.Errorf("error %q should name %s", err, field)
			}
		})
	}
}
