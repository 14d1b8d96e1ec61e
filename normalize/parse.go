package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omakasem/draftstream/types"
)

// ErrNotObject is returned when a document parses but is not a JSON object.
var ErrNotObject = errors.New("draft document is not a JSON object")

// Decode parses a complete draft document into its wire map.
func Decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode draft: trailing data after document")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return m, nil
}

// ParseDraft parses the full accumulated content and normalizes it.
func ParseDraft(content string) (types.CoursePlan, error) {
	raw, err := Decode([]byte(content))
	if err != nil {
		return types.CoursePlan{}, err
	}
	return Plan(raw), nil
}

// ParsePlan normalizes a plan carried inside an event payload.
func ParsePlan(data json.RawMessage) (types.CoursePlan, error) {
	return ParseDraft(string(data))
}
