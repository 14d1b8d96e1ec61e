package sse

import (
	"encoding/json"
	"strings"

	"github.com/omakasem/draftstream/types"
)

// Line prefixes recognized by Classify.
const (
	EventPrefix = "event: "
	DataPrefix  = "data: "
)

// LineKind classifies a complete line.
type LineKind int

const (
	// LineOther is any line that is neither an event nor a data line.
	LineOther LineKind = iota
	// LineBlank is an empty line; it dispatches the current SSE message.
	LineBlank
	// LineEvent is an "event: <name>" line.
	LineEvent
	// LineData is a "data: <payload>" line.
	LineData
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineEvent:
		return "event"
	case LineData:
		return "data"
	default:
		return "other"
	}
}

// Line is a classified line. Value holds the trimmed event name or the raw
// data payload.
type Line struct {
	Kind  LineKind
	Value string
}

// Classify inspects one complete line.
func Classify(line string) Line {
	switch {
	case line == "":
		return Line{Kind: LineBlank}
	case strings.HasPrefix(line, EventPrefix):
		return Line{Kind: LineEvent, Value: strings.TrimSpace(line[len(EventPrefix):])}
	case strings.HasPrefix(line, DataPrefix):
		return Line{Kind: LineData, Value: line[len(DataPrefix):]}
	default:
		return Line{Kind: LineOther}
	}
}

// ParseData decodes a data payload. Only a value that is not a JSON object
// fails; callers drop those. A mistyped field is left unset.
func ParseData(value string) (*types.DataPayload, error) {
	var payload types.DataPayload
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
