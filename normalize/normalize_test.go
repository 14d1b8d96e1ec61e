package normalize

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/omakasem/draftstream/types"
)

func samplePlan() types.CoursePlan {
	return types.CoursePlan{
		Title:    "Go 백엔드 입문",
		OneLiner: "8주 만에 API 만들기",
		Epics: []types.Epic{
			{
				EpicID:      "ep-1",
				WeekNumber:  1,
				Title:       "HTTP 기초",
				Description: "net/http",
				Stories: []types.Story{
					{StoryID: "st-1", Title: "핸들러", Description: "첫 엔드포인트", TaskCount: 2, Tasks: []types.Task{
						{Title: "GET /health", Description: "상태 확인"},
						{Title: "JSON 응답"},
					}},
					{StoryID: "st-2", Title: "미들웨어", TaskCount: 3},
				},
			},
			{
				EpicID:     "ep-2",
				WeekNumber: 2,
				Title:      "데이터베이스",
				Stories:    []types.Story{},
			},
		},
	}
}

// Round trips hold for NFC text only; decomposed strings come back composed
// (see TestPlan_ComposesDecomposedHangul).
func TestParseDraft_RoundTrip(t *testing.T) {
	want := samplePlan()
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := ParseDraft(string(data))
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestPlan_SnakeCaseWire(t *testing.T) {
	doc := `{
		"title": "T",
		"one_liner": "short",
		"epics": [
			{"epic_id": "e1", "week_number": 3, "title": "E1", "description": "D1",
			 "stories": [{"story_id": "s1", "title": "S1", "task_count": 4}]}
		]
	}`
	plan, err := ParseDraft(doc)
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if plan.OneLiner != "short" {
		t.Errorf("expected one_liner alias, got %q", plan.OneLiner)
	}
	e := plan.Epics[0]
	if e.EpicID != "e1" || e.WeekNumber != 3 || e.Title != "E1" || e.Description != "D1" {
		t.Errorf("unexpected epic: %+v", e)
	}
	if s := e.Stories[0]; s.StoryID != "s1" || s.TaskCount != 4 {
		t.Errorf("unexpected story: %+v", s)
	}
}

func TestPlan_Defaults(t *testing.T) {
	plan, err := ParseDraft(`{"epics":[{"title":"A","stories":[{"title":"a1"},{"title":"a2","tasks":[{"title":"x"},{"title":"y"},"bogus"]}]},{"week_number":0},{"epic_id":7}]}`)
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if plan.Title != "" || plan.OneLiner != "" {
		t.Errorf("expected empty title fields, got %+v", plan)
	}
	if len(plan.Epics) != 3 {
		t.Fatalf("expected 3 epics, got %d", len(plan.Epics))
	}

	tests := []struct {
		id   string
		week int
	}{
		{"epic_0", 1},
		{"epic_1", 2},
		{"7", 3},
	}
	for i, tt := range tests {
		if got := plan.Epics[i]; got.EpicID != tt.id || got.WeekNumber != tt.week {
			t.Errorf("epic %d: expected (%q, %d), got (%q, %d)", i, tt.id, tt.week, got.EpicID, got.WeekNumber)
		}
	}

	stories := plan.Epics[0].Stories
	if stories[0].StoryID != "story_0_0" || stories[1].StoryID != "story_0_1" {
		t.Errorf("unexpected synthetic story ids: %q, %q", stories[0].StoryID, stories[1].StoryID)
	}
	if stories[0].TaskCount != 0 || stories[0].Tasks != nil {
		t.Errorf("expected no tasks, got %+v", stories[0])
	}
	if stories[1].TaskCount != 2 || len(stories[1].Tasks) != 2 {
		t.Errorf("expected taskCount from tasks length, got %+v", stories[1])
	}
	if plan.Epics[1].Stories == nil {
		t.Error("stories should default to an empty slice")
	}
}

func TestPlan_IdsUniqueWithinDocument(t *testing.T) {
	plan, err := ParseDraft(`{"epics":[{"stories":[{},{}]},{"stories":[{},{}]}]}`)
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	seen := map[string]bool{}
	for _, e := range plan.Epics {
		if seen[e.EpicID] {
			t.Fatalf("duplicate epic id %q", e.EpicID)
		}
		seen[e.EpicID] = true
		for _, s := range e.Stories {
			if seen[s.StoryID] {
				t.Fatalf("duplicate story id %q", s.StoryID)
			}
			seen[s.StoryID] = true
		}
	}
}

func TestPlan_MistypedFieldsIgnored(t *testing.T) {
	plan := Plan(map[string]any{
		"title": 42,
		"epics": "not an array",
	})
	if plan.Title != "" || len(plan.Epics) != 0 {
		t.Fatalf("expected zero plan, got %+v", plan)
	}

	e := Epic(map[string]any{"week_number": -2.0, "title": "x"}, 4)
	if e.WeekNumber != 5 {
		t.Errorf("negative week number should default, got %d", e.WeekNumber)
	}

	s := Story(map[string]any{"taskCount": "3"}, 0, 0)
	if s.TaskCount != 3 {
		t.Errorf("numeric string taskCount should parse, got %d", s.TaskCount)
	}
}

func TestPlan_ComposesDecomposedHangul(t *testing.T) {
	// "한글" as conjoining jamo.
	decomposed := "\u1112\u1161\u11ab\u1100\u1173\u11af"
	plan := Plan(map[string]any{"title": decomposed})
	if plan.Title != "한글" {
		t.Fatalf("expected composed title, got %q", plan.Title)
	}
}

func TestParseDraft_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"truncated", `{"title":"T","epics":[`},
		{"trailing garbage", `{"title":"T"} extra`},
		{"array root", `[1,2]`},
		{"string root", `"title"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDraft(tt.content); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := ParseDraft(`[]`); !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
}

func TestParsePlan_FromPayload(t *testing.T) {
	plan, err := ParsePlan(json.RawMessage(`{"title":"P","oneLiner":"o","epics":[]}`))
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if plan.Title != "P" || plan.OneLiner != "o" || plan.Epics == nil {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}
