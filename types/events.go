package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mode selects which upstream stream a session consumes.
type Mode string

// Stream modes.
const (
	// ModeDraft consumes the curriculum draft stream.
	ModeDraft Mode = "draft"
	// ModeEnrichment consumes the per-epic enrichment stream after approval.
	ModeEnrichment Mode = "enrichment"
)

// EventName is the value of an SSE "event:" line.
type EventName string

// Named SSE events.
const (
	EventDraftComplete EventName = "draft_complete"
	EventComplete      EventName = "complete"
	EventPlanComplete  EventName = "plan_complete"
	// EventError is emitted by the session proxy when the upstream fails.
	EventError EventName = "error"
)

// IsTerminal reports whether the event ends a stream of the given mode.
// Both modes signal completion with a named event; EventError is terminal
// for either mode.
func (e EventName) IsTerminal(mode Mode) bool {
	switch e {
	case EventError:
		return true
	case EventDraftComplete, EventComplete:
		return mode == ModeDraft
	case EventPlanComplete:
		return mode == ModeEnrichment || mode == ModeDraft
	default:
		return false
	}
}

// FlexID is an identifier that arrives either as a JSON string or a number.
type FlexID string

// UnmarshalJSON accepts a string or a JSON number, keeping the number's
// literal spelling.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex id: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

// DataPayload is the decoded JSON body of an SSE "data:" line.
// Every field is optional; pointer fields distinguish absent from zero.
type DataPayload struct {
	Content      *string         `json:"content,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	EpicID       *FlexID         `json:"epic_id,omitempty"`
	Title        string          `json:"title,omitempty"`
	Phase        string          `json:"phase,omitempty"`
	Description  string          `json:"description,omitempty"`
	Step         *int            `json:"step,omitempty"`
	TotalEpics   *int            `json:"total_epics,omitempty"`
	Progress     json.RawMessage `json:"progress,omitempty"`
	Plan         json.RawMessage `json:"plan,omitempty"`
	QualityScore *float64        `json:"quality_score,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// UnmarshalJSON decodes each field on its own. A field with an unexpected
// JSON type is left unset; only a body that is not a JSON object fails.
func (p *DataPayload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("data payload: not an object")
	}
	*p = DataPayload{}

	var content string
	if decodeField(fields, "content", &content) {
		p.Content = &content
	}
	decodeField(fields, "session_id", &p.SessionID)
	var epicID FlexID
	if decodeField(fields, "epic_id", &epicID) && epicID != "" {
		p.EpicID = &epicID
	}
	decodeField(fields, "title", &p.Title)
	decodeField(fields, "phase", &p.Phase)
	decodeField(fields, "description", &p.Description)
	var step, total int
	if decodeField(fields, "step", &step) {
		p.Step = &step
	}
	if decodeField(fields, "total_epics", &total) {
		p.TotalEpics = &total
	}
	p.Progress = fields["progress"]
	p.Plan = fields["plan"]
	var score float64
	if decodeField(fields, "quality_score", &score) {
		p.QualityScore = &score
	}
	decodeField(fields, "error", &p.Error)
	return nil
}

// decodeField reports whether key is present, non-null and decodes into dst.
func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// HasProgress reports whether the payload carries a non-null progress value.
func (p *DataPayload) HasProgress() bool {
	return len(p.Progress) > 0 && !bytes.Equal(p.Progress, []byte("null"))
}

// HasPlan reports whether the payload carries a non-null plan document.
func (p *DataPayload) HasPlan() bool {
	return len(p.Plan) > 0 && !bytes.Equal(p.Plan, []byte("null"))
}
