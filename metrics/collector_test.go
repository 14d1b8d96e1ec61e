package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("draft", "webhook", "sess-001")

	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed()
	c.IncSessionFailed()
	c.IncSessionCancelled()
	c.AddBytesRead(128)
	c.AddBytesRead(64)
	c.AddLines(5)
	c.IncEventsSeen()
	c.IncContentDeltas()
	c.IncContentDeltas()
	c.IncDroppedLines()
	c.IncStalls()
	c.IncConnectErrors()
	c.IncReadErrors()
	c.IncParseErrors()
	c.IncPersistSuccess()
	c.IncPersistFailure()
	c.IncProgressPublished()
	c.IncProgressFailed()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteFailure()

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"SessionsStarted", s.SessionsStarted, 1},
		{"SessionsCompleted", s.SessionsCompleted, 1},
		{"SessionsFailed", s.SessionsFailed, 2},
		{"SessionsCancelled", s.SessionsCancelled, 1},
		{"BytesRead", s.BytesRead, 192},
		{"LinesRead", s.LinesRead, 5},
		{"EventsSeen", s.EventsSeen, 1},
		{"ContentDeltas", s.ContentDeltas, 2},
		{"DroppedLines", s.DroppedLines, 1},
		{"Stalls", s.Stalls, 1},
		{"ConnectErrors", s.ConnectErrors, 1},
		{"ReadErrors", s.ReadErrors, 1},
		{"ParseErrors", s.ParseErrors, 1},
		{"PersistSuccess", s.PersistSuccess, 1},
		{"PersistFailure", s.PersistFailure, 1},
		{"ProgressPublished", s.ProgressPublished, 1},
		{"ProgressFailed", s.ProgressFailed, 1},
		{"LodeWriteSuccess", s.LodeWriteSuccess, 2},
		{"LodeWriteFailure", s.LodeWriteFailure, 1},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("enrichment", "redis", "sess-42")
	s := c.Snapshot()

	if s.Mode != "enrichment" {
		t.Errorf("Mode = %q, want %q", s.Mode, "enrichment")
	}
	if s.PersistBackend != "redis" {
		t.Errorf("PersistBackend = %q, want %q", s.PersistBackend, "redis")
	}
	if s.SessionID != "sess-42" {
		t.Errorf("SessionID = %q, want %q", s.SessionID, "sess-42")
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("draft", "none", "sess-001")
	c.IncSessionStarted()
	c.IncLodeWriteSuccess()

	s1 := c.Snapshot()

	c.IncSessionCompleted()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteSuccess()

	if s1.SessionsCompleted != 0 {
		t.Errorf("s1.SessionsCompleted = %d, want 0 (snapshot should be frozen)", s1.SessionsCompleted)
	}
	if s1.LodeWriteSuccess != 1 {
		t.Errorf("s1.LodeWriteSuccess = %d, want 1 (snapshot should be frozen)", s1.LodeWriteSuccess)
	}

	s2 := c.Snapshot()
	if s2.SessionsCompleted != 1 {
		t.Errorf("s2.SessionsCompleted = %d, want 1", s2.SessionsCompleted)
	}
	if s2.LodeWriteSuccess != 3 {
		t.Errorf("s2.LodeWriteSuccess = %d, want 3", s2.LodeWriteSuccess)
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic
	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed()
	c.IncSessionCancelled()
	c.AddBytesRead(10)
	c.AddLines(1)
	c.IncEventsSeen()
	c.IncContentDeltas()
	c.IncDroppedLines()
	c.IncStalls()
	c.IncConnectErrors()
	c.IncReadErrors()
	c.IncParseErrors()
	c.IncPersistSuccess()
	c.IncPersistFailure()
	c.IncProgressPublished()
	c.IncProgressFailed()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteFailure()

	if s := c.Snapshot(); s != (Snapshot{}) {
		t.Errorf("nil collector snapshot should be zero, got %+v", s)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("draft", "none", "sess-001")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				c.IncContentDeltas()
				c.AddBytesRead(2)
				c.IncProgressPublished()
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.ContentDeltas != want {
		t.Errorf("ContentDeltas = %d, want %d", s.ContentDeltas, want)
	}
	if s.BytesRead != 2*want {
		t.Errorf("BytesRead = %d, want %d", s.BytesRead, 2*want)
	}
	if s.ProgressPublished != want {
		t.Errorf("ProgressPublished = %d, want %d", s.ProgressPublished, want)
	}
}
