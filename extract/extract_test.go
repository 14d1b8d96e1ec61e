package extract

import (
	"reflect"
	"strings"
	"testing"

	"github.com/omakasem/draftstream/types"
)

const scenarioDoc = `{"title":"T","epics":[{"title":"E1","description":"D1","stories":[{"title":"S1"}]}]}`

// realisticDoc resembles a planner draft: pretty-printed, Korean text,
// escapes, fields in varying order.
const realisticDoc = `{
  "title": "Go 백엔드 입문",
  "one_liner": "8주 만에 \"실전\" API 만들기",
  "epics": [
    {
      "epic_id": "ep-1",
      "week_number": 1,
      "title": "HTTP 기초",
      "description": "net/http 와 라우팅",
      "stories": [
        {"title": "핸들러 작성", "description": "첫 엔드포인트", "tasks": [{"title": "GET /health"}, {"title": "JSON 응답"}]},
        {"description": "미들웨어 체인", "title": "로깅 미들웨어", "task_count": 2}
      ]
    },
    {
      "stories": [
        {"title": "스키마 설계", "acceptance_criteria": ["테이블 3개", "인덱스 \"email\""]}
      ],
      "title": "데이터베이스",
      "description": "SQL 과 {중괄호} [대괄호] 가 들어간 설명"
    },
    {
      "title": "배포",
      "description": "컨테이너와 CI",
      "stories": []
    }
  ]
}`

func titles(frags []types.Fragment) []string {
	var out []string
	for _, f := range frags {
		out = append(out, f.Title)
	}
	return out
}

func TestExtract_ScenarioA_CompleteDocument(t *testing.T) {
	epics := Extract(scenarioDoc, "epics")
	if len(epics) != 1 {
		t.Fatalf("expected 1 epic, got %d", len(epics))
	}
	e := epics[0]
	if e.Title != "E1" || e.Description != "D1" || !e.IsComplete {
		t.Fatalf("unexpected epic: %+v", e)
	}
	if len(e.Children) != 1 {
		t.Fatalf("expected 1 story, got %d", len(e.Children))
	}
	if s := e.Children[0]; s.Title != "S1" || !s.IsComplete {
		t.Fatalf("unexpected story: %+v", s)
	}
}

func TestExtract_ScenarioB_WithheldTail(t *testing.T) {
	// Epic brace closed, outer array and document still open.
	closed := strings.TrimSuffix(scenarioDoc, "]}")
	epics := Extract(closed, "epics")
	if len(epics) != 1 || !epics[0].IsComplete {
		t.Fatalf("epic whose brace closed must be complete: %+v", epics)
	}

	// Epic brace still open: only the epic is partial, its story is complete.
	open := strings.TrimSuffix(scenarioDoc, "}]}")
	epics = Extract(open, "epics")
	if len(epics) != 1 {
		t.Fatalf("expected 1 epic, got %d", len(epics))
	}
	if epics[0].IsComplete {
		t.Fatal("epic with open brace must be partial")
	}
	if len(epics[0].Children) != 1 || !epics[0].Children[0].IsComplete {
		t.Fatalf("closed story inside open epic must be complete: %+v", epics[0].Children)
	}
}

func TestExtract_MissingArray(t *testing.T) {
	if got := Extract(`{"title":"T","epi`, "epics"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := Extract("", "epics"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestExtract_RealisticDocument(t *testing.T) {
	epics := Epics(realisticDoc)
	if want := []string{"HTTP 기초", "데이터베이스", "배포"}; !reflect.DeepEqual(titles(epics), want) {
		t.Fatalf("expected %q, got %q", want, titles(epics))
	}
	for i, e := range epics {
		if !e.IsComplete {
			t.Errorf("epic %d should be complete", i)
		}
		if e.Index != i+1 {
			t.Errorf("epic %d: expected index %d, got %d", i, i+1, e.Index)
		}
	}

	if got := epics[1].Description; got != "SQL 과 {중괄호} [대괄호] 가 들어간 설명" {
		t.Errorf("braces inside strings must not confuse the scanner, got %q", got)
	}

	stories := epics[0].Children
	if want := []string{"핸들러 작성", "로깅 미들웨어"}; !reflect.DeepEqual(titles(stories), want) {
		t.Fatalf("expected %q, got %q", want, titles(stories))
	}
	if want := []string{"GET /health", "JSON 응답"}; !reflect.DeepEqual(titles(stories[0].Children), want) {
		t.Errorf("expected tasks %q, got %q", want, titles(stories[0].Children))
	}

	criteria := epics[1].Children[0].Items
	if want := []string{"테이블 3개", `인덱스 "email"`}; !reflect.DeepEqual(criteria, want) {
		t.Errorf("expected criteria %q, got %q", want, criteria)
	}

	if len(epics[2].Children) != 0 {
		t.Errorf("expected no stories for empty array, got %+v", epics[2].Children)
	}
}

func TestExtract_KeyOrderAndWhitespaceIndependent(t *testing.T) {
	a := `{"epics":[{"title":"A","description":"d","stories":[{"title":"s"}]}]}`
	b := "{ \"epics\" :\n[ {\n\"stories\" : [ { \"title\" : \"s\" } ] ,\n\"description\":\"d\" , \"title\" :\"A\" } ] }"
	if !reflect.DeepEqual(Epics(a), Epics(b)) {
		t.Fatalf("results differ:\n%+v\n%+v", Epics(a), Epics(b))
	}
}

func TestExtract_NestedTitleDoesNotShadowOwnTitle(t *testing.T) {
	// The story title appears before the epic's own title in the text.
	doc := `{"epics":[{"stories":[{"title":"inner"}],"title":"outer"}]}`
	epics := Epics(doc)
	if len(epics) != 1 || epics[0].Title != "outer" {
		t.Fatalf("expected outer epic title, got %+v", epics)
	}
}

func TestExtract_KeyInsideStringValueIgnored(t *testing.T) {
	doc := `{"title":"has \"stories\":[ inside","epics":[{"title":"E","description":"\"stories\":[{\"title\":\"fake\"}]"}]}`
	epics := Epics(doc)
	if len(epics) != 1 {
		t.Fatalf("expected 1 epic, got %d", len(epics))
	}
	if len(epics[0].Children) != 0 {
		t.Fatalf("key spelled inside a string must not match: %+v", epics[0].Children)
	}

	stories := Stories(doc)
	if len(stories) != 0 {
		t.Fatalf("expected no top-level stories, got %+v", stories)
	}
}

func TestExtract_ObjectWithoutTitleSkipped(t *testing.T) {
	doc := `{"epics":[{"description":"no title"},{"title":"kept"}]}`
	epics := Epics(doc)
	if len(epics) != 1 || epics[0].Title != "kept" || epics[0].Index != 1 {
		t.Fatalf("unexpected epics: %+v", epics)
	}
}

func TestExtract_PartialTitleNotReported(t *testing.T) {
	epics := Epics(`{"epics":[{"title":"E1"},{"title":"E2 is still stre`)
	if len(epics) != 1 || epics[0].Title != "E1" {
		t.Fatalf("partial string must not produce a fragment: %+v", epics)
	}
}

func TestExtract_StopsAtClosingBracket(t *testing.T) {
	doc := `{"epics":[{"title":"E1"}],"appendix":[{"title":"not an epic"}]}`
	if got := titles(Epics(doc)); !reflect.DeepEqual(got, []string{"E1"}) {
		t.Fatalf("expected only E1, got %q", got)
	}
}

func TestExtract_UnknownFieldIsLeaf(t *testing.T) {
	doc := `{"modules":[{"title":"m1","stories":[{"title":"s"}]}]}`
	mods := Extract(doc, "modules")
	if len(mods) != 1 || mods[0].Children != nil {
		t.Fatalf("unknown field should not recurse: %+v", mods)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	for _, doc := range []string{scenarioDoc, realisticDoc, realisticDoc[:len(realisticDoc)/2]} {
		first := Epics(doc)
		second := Epics(doc)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("extraction is not idempotent for %q", doc)
		}
	}
}

func TestExtract_MonotonicAcrossPrefixes(t *testing.T) {
	var prevComplete []types.Fragment
	for n := 0; n <= len(realisticDoc); n++ {
		frags := Epics(realisticDoc[:n])
		assertAtMostOnePartial(t, frags, n)

		complete := frags[:types.CompleteCount(frags)]
		if len(complete) < len(prevComplete) {
			t.Fatalf("prefix %d: complete fragments shrank from %d to %d", n, len(prevComplete), len(complete))
		}
		if !reflect.DeepEqual(complete[:len(prevComplete)], prevComplete) {
			t.Fatalf("prefix %d: previously complete fragments were revised", n)
		}
		prevComplete = complete
	}
	if len(prevComplete) != 3 {
		t.Fatalf("expected 3 complete epics at the end, got %d", len(prevComplete))
	}
}

func assertAtMostOnePartial(t *testing.T, frags []types.Fragment, n int) {
	t.Helper()
	for i, f := range frags {
		if !f.IsComplete && i != len(frags)-1 {
			t.Fatalf("prefix %d: partial fragment at %d is not last", n, i)
		}
		assertAtMostOnePartial(t, f.Children, n)
	}
}
