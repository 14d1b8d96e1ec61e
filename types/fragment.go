package types

// Fragment is a provisional record extracted from an in-progress JSON array.
//
// Fragments are recomputed from the full content on every delta and never
// mutated in place. IsComplete is true iff the fragment's brace pair closed
// before the end of the buffer; at most the last fragment of an array may be
// incomplete.
type Fragment struct {
	// Index is the 1-based position among the valid fragments of the array.
	Index       int        `json:"index" msgpack:"index" yaml:"index"`
	Title       string     `json:"title" msgpack:"title" yaml:"title"`
	Description string     `json:"description" msgpack:"description" yaml:"description"`
	Children    []Fragment `json:"children,omitempty" msgpack:"children,omitempty" yaml:"children,omitempty"`
	// Items holds the complete string entries of a string array such as
	// acceptance_criteria.
	Items      []string `json:"items,omitempty" msgpack:"items,omitempty" yaml:"items,omitempty"`
	IsComplete bool     `json:"isComplete" msgpack:"is_complete" yaml:"is_complete"`
}

// CompleteCount returns how many leading fragments are complete.
func CompleteCount(frags []Fragment) int {
	n := 0
	for _, f := range frags {
		if !f.IsComplete {
			break
		}
		n++
	}
	return n
}
