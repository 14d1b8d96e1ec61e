package sse

import (
	"reflect"
	"strings"
	"testing"
)

func ingestAll(t *testing.T, d *Decoder, chunks ...[]byte) []string {
	t.Helper()
	var lines []string
	for _, c := range chunks {
		got, err := d.Ingest(c)
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
		lines = append(lines, got...)
	}
	return lines
}

func TestDecoder_SplitsLinesAndKeepsTail(t *testing.T) {
	d := NewDecoder()

	lines := ingestAll(t, d, []byte("event: start\ndata: {\"a\""))
	if !reflect.DeepEqual(lines, []string{"event: start"}) {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if d.Pending() != "data: {\"a\"" {
		t.Fatalf("unexpected pending tail: %q", d.Pending())
	}

	lines = ingestAll(t, d, []byte(":1}\n\n"))
	want := []string{"data: {\"a\":1}", ""}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("expected %q, got %q", want, lines)
	}
	if d.Pending() != "" {
		t.Fatalf("expected empty tail, got %q", d.Pending())
	}
}

func TestDecoder_StripsCarriageReturn(t *testing.T) {
	d := NewDecoder()
	lines := ingestAll(t, d, []byte("data: x\r\nevent: complete\r\n"))
	want := []string{"data: x", "event: complete"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("expected %q, got %q", want, lines)
	}
}

func TestDecoder_MultiByteSplitAcrossChunks(t *testing.T) {
	input := []byte("data: {\"content\":\"커리큘럼\"}\n")

	for cut := 1; cut < len(input); cut++ {
		d := NewDecoder()
		lines := ingestAll(t, d, input[:cut], input[cut:])
		want := []string{"data: {\"content\":\"커리큘럼\"}"}
		if !reflect.DeepEqual(lines, want) {
			t.Fatalf("cut=%d: expected %q, got %q", cut, want, lines)
		}
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	input := "event: draft_complete\ndata: {\"title\":\"주차 1\"}\n\n"
	d := NewDecoder()
	var chunks [][]byte
	for i := 0; i < len(input); i++ {
		chunks = append(chunks, []byte{input[i]})
	}
	lines := ingestAll(t, d, chunks...)
	want := []string{"event: draft_complete", "data: {\"title\":\"주차 1\"}", ""}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("expected %q, got %q", want, lines)
	}
}

func TestDecoder_FlushReturnsTail(t *testing.T) {
	d := NewDecoder()
	_ = ingestAll(t, d, []byte("data: {\"content\":\"x\"}"))

	lines, err := d.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"data: {\"content\":\"x\"}"}) {
		t.Fatalf("unexpected flushed lines: %q", lines)
	}

	lines, err = d.Flush()
	if err != nil {
		t.Fatalf("second Flush failed: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected nothing after second flush, got %q", lines)
	}
}

func TestDecoder_FlushReplacesTruncatedSequence(t *testing.T) {
	d := NewDecoder()
	full := []byte("가")
	_ = ingestAll(t, d, []byte("data: "), full[:2])

	lines, err := d.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "data: ") || !strings.Contains(lines[0], "�") {
		t.Fatalf("expected replacement character in final line, got %q", lines)
	}
}

func TestDecoder_LineTooLarge(t *testing.T) {
	d := NewDecoder()
	_, err := d.Ingest([]byte(strings.Repeat("x", MaxLineSize+1)))
	if err == nil {
		t.Fatal("expected error for oversized line")
	}
	if !IsLineError(err) {
		t.Fatalf("expected *LineError, got %T", err)
	}
}
