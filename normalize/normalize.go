// Package normalize maps the planner's wire representation of a curriculum
// onto the canonical types.CoursePlan.
//
// Normalization never fails: missing or mistyped fields fall back to their
// zero value, missing identifiers are synthesized from positions, and every
// field is accepted under both its snake_case and camelCase spelling.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/omakasem/draftstream/types"
)

// Plan normalizes a decoded draft document.
func Plan(raw map[string]any) types.CoursePlan {
	plan := types.CoursePlan{
		Title:    text(raw, "title"),
		OneLiner: text(raw, "one_liner", "oneLiner"),
		Epics:    []types.Epic{},
	}
	for i, e := range objects(raw, "epics") {
		plan.Epics = append(plan.Epics, Epic(e, i))
	}
	return plan
}

// Epic normalizes the epic at position index (0-based) of a draft.
func Epic(raw map[string]any, index int) types.Epic {
	epic := types.Epic{
		EpicID:      ident(raw, "epic_id", "epicId"),
		WeekNumber:  count(raw, "week_number", "weekNumber"),
		Title:       text(raw, "title"),
		Description: text(raw, "description"),
		Stories:     []types.Story{},
	}
	if epic.EpicID == "" {
		epic.EpicID = fmt.Sprintf("epic_%d", index)
	}
	if epic.WeekNumber == 0 {
		epic.WeekNumber = index + 1
	}
	for j, s := range objects(raw, "stories") {
		epic.Stories = append(epic.Stories, Story(s, index, j))
	}
	return epic
}

// Story normalizes story j of epic i.
func Story(raw map[string]any, epicIndex, storyIndex int) types.Story {
	story := types.Story{
		StoryID:     ident(raw, "story_id", "storyId"),
		Title:       text(raw, "title"),
		Description: text(raw, "description"),
		TaskCount:   count(raw, "task_count", "taskCount"),
	}
	if story.StoryID == "" {
		story.StoryID = fmt.Sprintf("story_%d_%d", epicIndex, storyIndex)
	}
	for _, t := range objects(raw, "tasks") {
		story.Tasks = append(story.Tasks, types.Task{
			Title:       text(t, "title"),
			Description: text(t, "description"),
		})
	}
	if story.TaskCount == 0 {
		story.TaskCount = len(story.Tasks)
	}
	return story
}

func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// text returns the first non-empty string under keys, NFC-composed.
func text(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return norm.NFC.String(s)
		}
	}
	return ""
}

// ident accepts string or numeric identifiers.
func ident(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return norm.NFC.String(s)
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// count returns the first positive integer under keys, or 0.
func count(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		if n := toInt(raw[k]); n > 0 {
			return n
		}
	}
	return 0
}

func toInt(v any) int {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		return n
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0
		}
		f = x
	case string:
		x, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return x
	default:
		return 0
	}
	if math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// objects returns the object elements of the array under key. Non-object
// elements are skipped.
func objects(raw map[string]any, key string) []map[string]any {
	v, ok := lookup(raw, key)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
