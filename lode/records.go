package lode

import (
	"encoding/json"
	"time"

	"github.com/omakasem/draftstream/metrics"
	"github.com/omakasem/draftstream/normalize"
	"github.com/omakasem/draftstream/types"
)

// Record kind discriminators, also the record_kind partition value.
const (
	RecordKindDraft   = "draft"
	RecordKindMetrics = "metrics"
)

// DraftSummary is the listing view of an archived draft record.
type DraftSummary struct {
	SessionID        string              `json:"session_id"`
	PlannerSessionID string              `json:"planner_session_id"`
	Mode             types.Mode          `json:"mode"`
	Status           types.SessionStatus `json:"status"`
	Title            string              `json:"title"`
	EpicCount        int                 `json:"epic_count"`
	StoryCount       int                 `json:"story_count"`
	QualityScore     *float64            `json:"quality_score,omitempty"`
	Source           string              `json:"source"`
	Day              string              `json:"day"`
	WrittenAt        time.Time           `json:"written_at"`
}

// DraftRecord is an archived draft with its full plan.
type DraftRecord struct {
	DraftSummary
	Plan types.CoursePlan `json:"plan"`
}

// toDraftRecordMap converts a session update to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any.
func toDraftRecordMap(u *types.SessionUpdate, cfg Config, writtenAt time.Time) map[string]any {
	m := map[string]any{
		"record_kind":        RecordKindDraft,
		"record_version":     types.RecordVersion,
		"session_id":         u.SessionID,
		"planner_session_id": u.PlannerSessionID,
		"mode":               string(u.Status.Mode()),
		"status":             string(u.Status),
		"title":              u.Draft.Title,
		"one_liner":          u.Draft.OneLiner,
		"epic_count":         len(u.Draft.Epics),
		"story_count":        u.Draft.StoryCount(),
		"plan":               planMap(u.Draft),
		"written_at":         writtenAt.UTC().Format(time.RFC3339Nano),
		"source":             cfg.Source,
		"day":                DeriveDay(writtenAt),
	}
	if u.QualityScore != nil {
		m["quality_score"] = *u.QualityScore
	}
	return m
}

// planMap flattens a plan into generic JSON values so the codec never sees
// a Go struct.
func planMap(p *types.CoursePlan) map[string]any {
	data, err := json.Marshal(p)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// toMetricsRecordMap converts a metrics snapshot to a map for Lode storage.
func toMetricsRecordMap(s metrics.Snapshot, outcome types.OutcomeStatus, cfg Config, completedAt time.Time) map[string]any {
	return map[string]any{
		"record_kind":    RecordKindMetrics,
		"record_version": types.RecordVersion,
		"session_id":     s.SessionID,
		"mode":           s.Mode,
		"outcome":        string(outcome),
		"ts":             completedAt.UTC().Format(time.RFC3339Nano),
		"source":         cfg.Source,
		"day":            DeriveDay(completedAt),

		"sessions_started_total":   s.SessionsStarted,
		"sessions_completed_total": s.SessionsCompleted,
		"sessions_failed_total":    s.SessionsFailed,
		"sessions_cancelled_total": s.SessionsCancelled,

		"bytes_read_total":     s.BytesRead,
		"lines_read_total":     s.LinesRead,
		"events_seen_total":    s.EventsSeen,
		"content_deltas_total": s.ContentDeltas,
		"dropped_lines_total":  s.DroppedLines,
		"stalls_total":         s.Stalls,

		"connect_errors_total": s.ConnectErrors,
		"read_errors_total":    s.ReadErrors,
		"parse_errors_total":   s.ParseErrors,

		"persist_success_total": s.PersistSuccess,
		"persist_failure_total": s.PersistFailure,

		"progress_published_total": s.ProgressPublished,
		"progress_failed_total":    s.ProgressFailed,

		"lode_write_success_total": s.LodeWriteSuccess,
		"lode_write_failure_total": s.LodeWriteFailure,

		"persist_backend": s.PersistBackend,
	}
}

// draftFromRecord decodes a raw draft record read back from the dataset.
func draftFromRecord(r map[string]any) DraftRecord {
	d := DraftRecord{
		DraftSummary: DraftSummary{
			SessionID:        toString(r["session_id"]),
			PlannerSessionID: toString(r["planner_session_id"]),
			Mode:             types.Mode(toString(r["mode"])),
			Status:           types.SessionStatus(toString(r["status"])),
			Title:            toString(r["title"]),
			EpicCount:        int(toInt64(r["epic_count"])),
			StoryCount:       int(toInt64(r["story_count"])),
			Source:           toString(r["source"]),
			Day:              toString(r["day"]),
		},
	}
	if v, ok := toFloat(r["quality_score"]); ok {
		d.QualityScore = &v
	}
	if ts, err := time.Parse(time.RFC3339Nano, toString(r["written_at"])); err == nil {
		d.WrittenAt = ts
	}
	if plan, ok := r["plan"].(map[string]any); ok {
		d.Plan = normalize.Plan(plan)
	}
	return d
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 accepts the numeric types a codec may hand back.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
