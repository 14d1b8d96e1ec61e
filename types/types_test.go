package types //nolint:revive // types is a valid package name

import (
	"encoding/json"
	"regexp"
	"testing"
)

func TestVersion_Format(t *testing.T) {
	semverRegex := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	if !semverRegex.MatchString(Version) {
		t.Errorf("Version %q is not a valid semver", Version)
	}
}

func TestEventName_IsTerminal(t *testing.T) {
	tests := []struct {
		event EventName
		mode  Mode
		want  bool
	}{
		{EventDraftComplete, ModeDraft, true},
		{EventComplete, ModeDraft, true},
		{EventError, ModeDraft, true},
		{EventError, ModeEnrichment, true},
		{EventPlanComplete, ModeEnrichment, true},
		{EventComplete, ModeEnrichment, false},
		{EventDraftComplete, ModeEnrichment, false},
		{"phase_start", ModeDraft, false},
		{"", ModeEnrichment, false},
	}
	for _, tt := range tests {
		if got := tt.event.IsTerminal(tt.mode); got != tt.want {
			t.Errorf("%q.IsTerminal(%s) = %v, want %v", tt.event, tt.mode, got, tt.want)
		}
	}
}

func TestFlexID_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want FlexID
	}{
		{`{"epic_id":"ep-1"}`, "ep-1"},
		{`{"epic_id":3}`, "3"},
		{`{"epic_id":3.0}`, "3.0"},
		{`{"epic_id":null}`, ""},
	}
	for _, tt := range tests {
		var p DataPayload
		if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		var got FlexID
		if p.EpicID != nil {
			got = *p.EpicID
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.in, got, tt.want)
		}
	}

	var p DataPayload
	if err := json.Unmarshal([]byte(`{"epic_id":{},"content":"x"}`), &p); err != nil {
		t.Fatalf("object epic_id: %v", err)
	}
	if p.EpicID != nil {
		t.Errorf("object epic_id should be unset, got %q", *p.EpicID)
	}
	if p.Content == nil || *p.Content != "x" {
		t.Error("content lost alongside a mistyped epic_id")
	}
}

func TestDataPayload_MistypedFieldsKeepContent(t *testing.T) {
	var p DataPayload
	in := `{"session_id":7,"step":"1","total_epics":2.5,"quality_score":"high","title":["x"],"content":"{\"ti"}`
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Content == nil || *p.Content != `{"ti` {
		t.Fatalf("content = %v", p.Content)
	}
	if p.SessionID != "" || p.Step != nil || p.TotalEpics != nil || p.QualityScore != nil || p.Title != "" {
		t.Errorf("mistyped fields should be unset: %+v", p)
	}

	for _, in := range []string{`"ping"`, `[1,2]`} {
		if err := json.Unmarshal([]byte(in), &p); err == nil {
			t.Errorf("%s: expected error", in)
		}
	}
}

func TestDataPayload_PlanAndProgress(t *testing.T) {
	var p DataPayload
	if err := json.Unmarshal([]byte(`{"plan":null,"progress":{"done":1},"quality_score":0}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.HasPlan() {
		t.Error("null plan should not count as present")
	}
	if !p.HasProgress() {
		t.Error("expected progress")
	}
	if p.QualityScore == nil || *p.QualityScore != 0 {
		t.Error("zero quality score must be distinguishable from absent")
	}
}

func TestSessionStatus_Mode(t *testing.T) {
	for _, mode := range []Mode{ModeDraft, ModeEnrichment} {
		if got := StatusFor(mode).Mode(); got != mode {
			t.Errorf("StatusFor(%s).Mode() = %s", mode, got)
		}
	}
}

func TestSessionState_IsTerminal(t *testing.T) {
	for _, s := range []SessionState{StateCompleted, StateFailed, StateCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []SessionState{StateIdle, StateStreaming} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(ErrorKindParse); got != "드래프트 파싱에 실패했습니다" {
		t.Errorf("unexpected parse message %q", got)
	}
	if got := UserMessage(ErrorKindConnect); got != "스트림 연결에 실패했습니다" {
		t.Errorf("unexpected connect message %q", got)
	}
	if UserMessage("bogus") == "" {
		t.Error("unknown kinds still need a message")
	}
}

func TestCompleteCount(t *testing.T) {
	frags := []Fragment{{IsComplete: true}, {IsComplete: true}, {IsComplete: false}}
	if got := CompleteCount(frags); got != 2 {
		t.Fatalf("CompleteCount = %d, want 2", got)
	}
	if got := CompleteCount(nil); got != 0 {
		t.Fatalf("CompleteCount(nil) = %d, want 0", got)
	}
}
