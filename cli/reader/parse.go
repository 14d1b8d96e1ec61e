package reader

import (
	"encoding/json"
	"errors"

	"github.com/omakasem/draftstream/metrics"
)

// SessionMetrics is an archived metrics record: the session's counters plus
// the outcome and completion time written alongside them.
type SessionMetrics struct {
	Ts      string `json:"ts"`
	Outcome string `json:"outcome"`
	metrics.Snapshot
}

// ParseMetricsRecord converts a Lode record (map[string]any) to SessionMetrics.
// Handles both int64 (direct writes) and float64 (JSON round-trips) for numeric fields.
func ParseMetricsRecord(record map[string]any) (*SessionMetrics, error) {
	if record == nil {
		return nil, errors.New("nil record")
	}

	m := &SessionMetrics{
		Ts:      toString(record["ts"]),
		Outcome: toString(record["outcome"]),
		Snapshot: metrics.Snapshot{
			SessionsStarted:   toInt64(record["sessions_started_total"]),
			SessionsCompleted: toInt64(record["sessions_completed_total"]),
			SessionsFailed:    toInt64(record["sessions_failed_total"]),
			SessionsCancelled: toInt64(record["sessions_cancelled_total"]),

			BytesRead:     toInt64(record["bytes_read_total"]),
			LinesRead:     toInt64(record["lines_read_total"]),
			EventsSeen:    toInt64(record["events_seen_total"]),
			ContentDeltas: toInt64(record["content_deltas_total"]),
			DroppedLines:  toInt64(record["dropped_lines_total"]),
			Stalls:        toInt64(record["stalls_total"]),

			ConnectErrors: toInt64(record["connect_errors_total"]),
			ReadErrors:    toInt64(record["read_errors_total"]),
			ParseErrors:   toInt64(record["parse_errors_total"]),

			PersistSuccess: toInt64(record["persist_success_total"]),
			PersistFailure: toInt64(record["persist_failure_total"]),

			ProgressPublished: toInt64(record["progress_published_total"]),
			ProgressFailed:    toInt64(record["progress_failed_total"]),

			LodeWriteSuccess: toInt64(record["lode_write_success_total"]),
			LodeWriteFailure: toInt64(record["lode_write_failure_total"]),

			Mode:           toString(record["mode"]),
			PersistBackend: toString(record["persist_backend"]),
			SessionID:      toString(record["session_id"]),
		},
	}

	// The write path always populates these; missing values indicate a
	// malformed record.
	if m.Ts == "" {
		return nil, errors.New("metrics record missing required field: ts")
	}
	if m.SessionID == "" {
		return nil, errors.New("metrics record missing required field: session_id")
	}
	if m.Outcome == "" {
		return nil, errors.New("metrics record missing required field: outcome")
	}

	return m, nil
}

// toInt64 converts a value to int64, handling float64 from JSON and int64 from direct writes.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
