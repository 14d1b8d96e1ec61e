// Package types defines core domain types for draftstream.
//
//nolint:revive // types is a common Go package naming convention
package types

import "time"

// SessionState is the lifecycle state of one stream-processing session.
//
//	Idle -> Streaming -> {Completed | Failed | Cancelled}
//
// Terminal states are absorbing.
type SessionState string

// Session states.
const (
	StateIdle      SessionState = "idle"
	StateStreaming SessionState = "streaming"
	StateCompleted SessionState = "completed"
	StateFailed    SessionState = "failed"
	StateCancelled SessionState = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// SessionStatus is the status written to the session store.
type SessionStatus string

// Persisted session statuses.
const (
	StatusReady    SessionStatus = "ready"
	StatusEnriched SessionStatus = "enriched"
)

// StatusFor returns the status a completed session of the given mode persists.
func StatusFor(mode Mode) SessionStatus {
	if mode == ModeEnrichment {
		return StatusEnriched
	}
	return StatusReady
}

// Mode returns the stream mode that produces this status.
func (s SessionStatus) Mode() Mode {
	if s == StatusEnriched {
		return ModeEnrichment
	}
	return ModeDraft
}

// SessionUpdate is the body of the "update session" call.
// The store upserts it keyed by SessionID.
type SessionUpdate struct {
	SessionID        string        `json:"sessionId"`
	PlannerSessionID string        `json:"plannerSessionId"`
	Draft            *CoursePlan   `json:"draft"`
	Status           SessionStatus `json:"status"`
	QualityScore     *float64      `json:"qualityScore,omitempty"`
}

// ErrorKind classifies why a session failed.
type ErrorKind string

// Error kinds. Distinct for telemetry; all collapse to short user messages.
const (
	ErrorKindConnect  ErrorKind = "stream_connect"
	ErrorKindRead     ErrorKind = "stream_read"
	ErrorKindParse    ErrorKind = "draft_parse"
	ErrorKindPersist  ErrorKind = "persist"
	ErrorKindCanceled ErrorKind = "canceled"
)

// UserMessage returns the short, localized message shown for an error kind.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case ErrorKindConnect:
		return "스트림 연결에 실패했습니다"
	case ErrorKindRead:
		return "스트림이 예상치 않게 종료되었습니다"
	case ErrorKindParse:
		return "드래프트 파싱에 실패했습니다"
	case ErrorKindPersist:
		return "드래프트 저장에 실패했습니다"
	case ErrorKindCanceled:
		return "요청이 취소되었습니다"
	default:
		return "알 수 없는 오류가 발생했습니다"
	}
}

// OutcomeStatus is the final status of a session.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Outcome is the single result of a session. Exactly one Outcome is produced
// per session; Plan is set iff Status is OutcomeCompleted.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Plan   *CoursePlan   `json:"plan,omitempty"`
	// Kind and Message are set for failed and cancelled outcomes.
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
	// Err is the underlying classified error, kept out of serialized output.
	Err              error         `json:"-"`
	SessionID        string        `json:"sessionId"`
	PlannerSessionID string        `json:"plannerSessionId,omitempty"`
	QualityScore     *float64      `json:"qualityScore,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// Progress is an out-of-band snapshot for progress display. It never
// influences correctness.
type Progress struct {
	SessionID        string `json:"session_id" msgpack:"session_id"`
	PlannerSessionID string `json:"planner_session_id,omitempty" msgpack:"planner_session_id,omitempty"`
	Mode             Mode   `json:"mode" msgpack:"mode"`
	Phase            string `json:"phase,omitempty" msgpack:"phase,omitempty"`
	// PhaseDescription is the human-readable label of the current phase.
	PhaseDescription string `json:"phase_description,omitempty" msgpack:"phase_description,omitempty"`
	// Step is the 1-based phase step, zero if unknown.
	Step        int    `json:"step,omitempty" msgpack:"step,omitempty"`
	TotalEpics  int    `json:"total_epics,omitempty" msgpack:"total_epics,omitempty"`
	CurrentEpic string `json:"current_epic,omitempty" msgpack:"current_epic,omitempty"`
	// Epics holds the extracted epic fragments (draft mode) or one fragment
	// per started epic whose children are its story fragments (enrichment mode).
	Epics        []Fragment `json:"epics" msgpack:"epics"`
	ContentBytes int        `json:"content_bytes" msgpack:"content_bytes"`
	Version      string     `json:"version" msgpack:"version"`
}
