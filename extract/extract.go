// Package extract recovers structural fragments from an incomplete JSON
// document while it streams in.
//
// Extraction is a pure function of the accumulated content: callers rerun it
// on every delta and never patch previous results. For a well-formed
// document, the complete fragments derived from a prefix are always a prefix
// of those derived from any longer prefix, and only the last fragment of an
// array may be incomplete.
package extract

import "github.com/omakasem/draftstream/types"

// Shape describes which array to extract and which nested arrays to recurse
// into for each element.
type Shape struct {
	// Field is the array key, e.g. "epics".
	Field string
	// Child is the nested object array extracted into Fragment.Children.
	Child *Shape
	// Items is a nested string array collected into Fragment.Items.
	Items string
}

// Curriculum shapes.
var (
	TaskShape  = Shape{Field: "tasks"}
	StoryShape = Shape{Field: "stories", Child: &TaskShape, Items: "acceptance_criteria"}
	EpicShape  = Shape{Field: "epics", Child: &StoryShape}
)

var knownShapes = map[string]Shape{
	EpicShape.Field:  EpicShape,
	StoryShape.Field: StoryShape,
	TaskShape.Field:  TaskShape,
}

// ShapeFor returns the known shape for field, or a leaf shape.
func ShapeFor(field string) Shape {
	if s, ok := knownShapes[field]; ok {
		return s
	}
	return Shape{Field: field}
}

// Extract returns the fragments of the first array named field in content.
// Known curriculum fields recurse into their nested arrays.
func Extract(content, field string) []types.Fragment {
	return ExtractShape(content, ShapeFor(field))
}

// Epics extracts epic fragments with their stories.
func Epics(content string) []types.Fragment {
	return ExtractShape(content, EpicShape)
}

// Stories extracts story fragments with their acceptance criteria.
func Stories(content string) []types.Fragment {
	return ExtractShape(content, StoryShape)
}

// ExtractShape returns the fragments of the first array matching shape.Field
// anywhere in content. An empty result means the array has not started yet
// or no element has a title yet.
func ExtractShape(content string, shape Shape) []types.Fragment {
	pos := findArray(content, shape.Field, false)
	if pos < 0 {
		return nil
	}
	return fragments(content, pos, shape)
}

func fragments(s string, pos int, shape Shape) []types.Fragment {
	var out []types.Fragment
	for _, sp := range objectSpans(s, pos) {
		f, ok := build(s[sp.start:sp.end], shape, sp.complete)
		if !ok {
			continue
		}
		f.Index = len(out) + 1
		out = append(out, f)
	}
	return out
}

// build turns one object candidate into a fragment. Fields are looked up
// among the object's own members in any order; a missing title rejects it.
func build(obj string, shape Shape, complete bool) (types.Fragment, bool) {
	title, ok := stringField(obj, "title")
	if !ok {
		return types.Fragment{}, false
	}
	desc, _ := stringField(obj, "description")

	f := types.Fragment{
		Title:       title,
		Description: desc,
		IsComplete:  complete,
	}

	// Nested arrays are extracted even while obj is still open, so children
	// render before their parent closes.
	if shape.Child != nil {
		if pos := findArray(obj, shape.Child.Field, true); pos >= 0 {
			f.Children = fragments(obj, pos, *shape.Child)
		}
	}
	if shape.Items != "" {
		if pos := findArray(obj, shape.Items, true); pos >= 0 {
			f.Items = stringItems(obj, pos)
		}
	}
	return f, true
}
