// Package metrics provides per-session counters for a draft stream.
//
// The Collector accumulates counters during a single session. It is a leaf
// package with no internal dependencies so every layer can record into it.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of a session's counters.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64
	SessionsCompleted int64
	SessionsFailed    int64
	SessionsCancelled int64

	// Stream
	BytesRead     int64
	LinesRead     int64
	EventsSeen    int64
	ContentDeltas int64
	DroppedLines  int64
	Stalls        int64

	// Failures by kind
	ConnectErrors int64
	ReadErrors    int64
	ParseErrors   int64

	// Persistence
	PersistSuccess int64
	PersistFailure int64

	// Progress publishing
	ProgressPublished int64
	ProgressFailed    int64

	// Lode archive
	LodeWriteSuccess int64
	LodeWriteFailure int64

	// Dimensions (informational, set at construction)
	Mode           string
	PersistBackend string
	SessionID      string
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(mode, persistBackend, sessionID string) *Collector {
	return &Collector{s: Snapshot{
		Mode:           mode,
		PersistBackend: persistBackend,
		SessionID:      sessionID,
	}}
}

func (c *Collector) add(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// --- Session lifecycle ---

// IncSessionStarted records a stream session start.
func (c *Collector) IncSessionStarted() {
	if c == nil {
		return
	}
	c.add(&c.s.SessionsStarted, 1)
}

// IncSessionCompleted records a session that finalized and persisted its draft.
func (c *Collector) IncSessionCompleted() {
	if c == nil {
		return
	}
	c.add(&c.s.SessionsCompleted, 1)
}

// IncSessionFailed records a session that ended with an error outcome.
func (c *Collector) IncSessionFailed() {
	if c == nil {
		return
	}
	c.add(&c.s.SessionsFailed, 1)
}

// IncSessionCancelled records a session stopped by its caller.
func (c *Collector) IncSessionCancelled() {
	if c == nil {
		return
	}
	c.add(&c.s.SessionsCancelled, 1)
}

// --- Stream ---

// AddBytesRead records n raw bytes received from the stream.
func (c *Collector) AddBytesRead(n int) {
	if c == nil {
		return
	}
	c.add(&c.s.BytesRead, int64(n))
}

// AddLines records n complete lines split from the stream.
func (c *Collector) AddLines(n int) {
	if c == nil {
		return
	}
	c.add(&c.s.LinesRead, int64(n))
}

// IncEventsSeen records a named event line.
func (c *Collector) IncEventsSeen() {
	if c == nil {
		return
	}
	c.add(&c.s.EventsSeen, 1)
}

// IncContentDeltas records a content delta appended to the draft.
func (c *Collector) IncContentDeltas() {
	if c == nil {
		return
	}
	c.add(&c.s.ContentDeltas, 1)
}

// IncDroppedLines records a malformed data line that was skipped.
func (c *Collector) IncDroppedLines() {
	if c == nil {
		return
	}
	c.add(&c.s.DroppedLines, 1)
}

// IncStalls records a read that exceeded the stall timeout.
func (c *Collector) IncStalls() {
	if c == nil {
		return
	}
	c.add(&c.s.Stalls, 1)
}

// --- Failures ---

// IncConnectErrors records a failure to open the stream.
func (c *Collector) IncConnectErrors() {
	if c == nil {
		return
	}
	c.add(&c.s.ConnectErrors, 1)
}

// IncReadErrors records a transport failure during the read loop.
func (c *Collector) IncReadErrors() {
	if c == nil {
		return
	}
	c.add(&c.s.ReadErrors, 1)
}

// IncParseErrors records accumulated content that failed to parse at completion.
func (c *Collector) IncParseErrors() {
	if c == nil {
		return
	}
	c.add(&c.s.ParseErrors, 1)
}

// --- Persistence ---

// IncPersistSuccess records a completed update-session call.
func (c *Collector) IncPersistSuccess() {
	if c == nil {
		return
	}
	c.add(&c.s.PersistSuccess, 1)
}

// IncPersistFailure records a failed update-session call.
func (c *Collector) IncPersistFailure() {
	if c == nil {
		return
	}
	c.add(&c.s.PersistFailure, 1)
}

// --- Progress ---

// IncProgressPublished records a progress snapshot delivered to subscribers.
func (c *Collector) IncProgressPublished() {
	if c == nil {
		return
	}
	c.add(&c.s.ProgressPublished, 1)
}

// IncProgressFailed records a progress snapshot that could not be published.
func (c *Collector) IncProgressFailed() {
	if c == nil {
		return
	}
	c.add(&c.s.ProgressFailed, 1)
}

// --- Lode / Storage ---
// Lode counters are per-call, not per-record.

// IncLodeWriteSuccess records a successful archive write.
func (c *Collector) IncLodeWriteSuccess() {
	if c == nil {
		return
	}
	c.add(&c.s.LodeWriteSuccess, 1)
}

// IncLodeWriteFailure records a failed archive write.
func (c *Collector) IncLodeWriteFailure() {
	if c == nil {
		return
	}
	c.add(&c.s.LodeWriteFailure, 1)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
