package extract

import "encoding/json"

// span is a candidate element of an array: s[start:end].
type span struct {
	start, end int
	complete   bool
}

// skipString returns the index just past the string literal starting at
// s[i] (which must be '"'). ok is false if the literal is unterminated.
func skipString(s string, i int) (end int, ok bool) {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1, true
		}
	}
	return len(s), false
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

// findValue locates the value of key and returns the index of its first
// character, or -1. If shallow is set, s must start at an object's '{' and
// only that object's own members match; otherwise the first occurrence at
// any depth whose value satisfies accept wins.
//
// String literals are skipped as opaque tokens, so a key spelled inside a
// value never matches.
func findValue(s, key string, shallow bool, accept func(byte) bool) int {
	depth := 0
	for i := 0; i < len(s); {
		switch s[i] {
		case '"':
			end, ok := skipString(s, i)
			if !ok {
				return -1
			}
			if (!shallow || depth == 1) && s[i+1:end-1] == key {
				j := skipSpace(s, end)
				if j < len(s) && s[j] == ':' {
					j = skipSpace(s, j+1)
					if j < len(s) && accept(s[j]) {
						return j
					}
				}
			}
			i = end
			continue
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
		i++
	}
	return -1
}

func isArrayStart(c byte) bool { return c == '[' }

func isStringStart(c byte) bool { return c == '"' }

// findArray returns the index just past the '[' opening key's array value,
// or -1 if the key (with an array value) has not appeared yet.
func findArray(s, key string, shallow bool) int {
	j := findValue(s, key, shallow, isArrayStart)
	if j < 0 {
		return -1
	}
	return j + 1
}

// stringField returns the decoded string value of one of obj's own members.
// A value whose closing quote has not arrived yet is reported as absent.
func stringField(obj, key string) (string, bool) {
	j := findValue(obj, key, true, isStringStart)
	if j < 0 {
		return "", false
	}
	end, ok := skipString(obj, j)
	if !ok {
		return "", false
	}
	return decodeString(obj[j:end])
}

func decodeString(lit string) (string, bool) {
	var v string
	if err := json.Unmarshal([]byte(lit), &v); err != nil {
		return "", false
	}
	return v, true
}

// objectSpans scans the array body starting at pos and returns every
// depth-0 object. The scan stops at the array's closing ']' or at the end of
// input; an object still open at that point is returned with complete=false.
func objectSpans(s string, pos int) []span {
	var spans []span
	depth := 0
	start := -1

scan:
	for i := pos; i < len(s); {
		switch s[i] {
		case '"':
			end, ok := skipString(s, i)
			if !ok {
				break scan
			}
			i = end
			continue
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '[':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 && start >= 0 {
				spans = append(spans, span{start: start, end: i + 1, complete: true})
				start = -1
			}
		case ']':
			if depth == 0 {
				return spans
			}
			depth--
		}
		i++
	}

	if start >= 0 {
		spans = append(spans, span{start: start, end: len(s), complete: false})
	}
	return spans
}

// stringItems collects the complete depth-0 string literals of the array
// body starting at pos. Non-string elements are ignored.
func stringItems(s string, pos int) []string {
	var items []string
	depth := 0
	for i := pos; i < len(s); {
		switch s[i] {
		case '"':
			end, ok := skipString(s, i)
			if !ok {
				return items
			}
			if depth == 0 {
				if v, ok := decodeString(s[i:end]); ok {
					items = append(items, v)
				}
			}
			i = end
			continue
		case '{', '[':
			depth++
		case '}':
			depth--
		case ']':
			if depth == 0 {
				return items
			}
			depth--
		}
		i++
	}
	return items
}
