// Package draft consumes one planner SSE stream and turns it into exactly
// one Outcome.
//
// A Session owns the accumulated content and the latest fragments of its
// stream. It moves through Idle -> Streaming -> {Completed | Failed |
// Cancelled}; the terminal state is reached once and the Outcome reflecting
// it is the only result the caller ever sees.
//
// Stream semantics:
//   - Lines are decoded incrementally; data deltas apply in arrival order
//   - Malformed data lines are dropped, never fatal
//   - A terminal named event finalizes at the end of its message, at the
//     next event line, or at end of stream, whichever comes first
//   - End of stream without a terminal event still finalizes (fallback)
//   - A transport error before any terminal event discards the content
//   - After cancellation no observer update and no completion occurs
package draft

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/omakasem/draftstream/adapter"
	"github.com/omakasem/draftstream/log"
	"github.com/omakasem/draftstream/metrics"
	"github.com/omakasem/draftstream/sse"
	"github.com/omakasem/draftstream/types"
)

// DefaultStallTimeout bounds the wait for the next chunk of a stream.
const DefaultStallTimeout = 60 * time.Second

// DefaultReadSize is the buffer size of each stream read.
const DefaultReadSize = 4096

// Config configures a session.
type Config struct {
	// SessionID identifies the session in the session store (required).
	SessionID string
	// PlannerSessionID is the planner's id. Learned from the stream in
	// draft mode; known up front in enrichment mode.
	PlannerSessionID string
	// Mode selects draft or enrichment semantics (default draft).
	Mode types.Mode
	// StallTimeout fails the stream when no bytes arrive for this long.
	// Zero disables the guard; negative selects DefaultStallTimeout.
	StallTimeout time.Duration
	// ReadSize is the per-read buffer size (default 4096).
	ReadSize int
}

// Observer receives progress snapshots while a session streams.
// Observe is called from the session's goroutine and must not block for long.
type Observer interface {
	Observe(p types.Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p types.Progress)

// Observe implements Observer.
func (f ObserverFunc) Observe(p types.Progress) { f(p) }

// Opener opens the upstream stream.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithCollector sets the metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Session) { s.collector = c }
}

// WithObserver adds a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is a single-use stream consumer.
type Session struct {
	config    Config
	updater   adapter.Updater
	logger    *log.Logger
	collector *metrics.Collector
	observers []Observer
	now       func() time.Time

	decoder  *sse.Decoder
	content  strings.Builder
	epics    []*epicStream
	terminal *terminal
	lastPlan *types.DataPayload

	mu               sync.Mutex
	state            types.SessionState
	fragments        []types.Fragment
	plannerSessionID string
	phase            string
	phaseDescription string
	step             int
	totalEpics       int
	currentEpic      string
}

// NewSession creates an idle session. A nil updater skips persistence.
func NewSession(cfg Config, updater adapter.Updater, opts ...Option) *Session {
	if cfg.Mode == "" {
		cfg.Mode = types.ModeDraft
	}
	if cfg.StallTimeout < 0 {
		cfg.StallTimeout = DefaultStallTimeout
	}
	if cfg.ReadSize <= 0 {
		cfg.ReadSize = DefaultReadSize
	}
	if updater == nil {
		updater = adapter.Nop{}
	}

	s := &Session{
		config:           cfg,
		updater:          updater,
		now:              time.Now,
		decoder:          sse.NewDecoder(),
		state:            types.StateIdle,
		plannerSessionID: cfg.PlannerSessionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewNop()
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fragments returns the latest extracted fragments. In draft mode these are
// epic fragments; in enrichment mode one fragment per started epic whose
// children are its story fragments.
func (s *Session) Fragments() []types.Fragment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Fragment(nil), s.fragments...)
}

// PlannerSessionID returns the planner session id, once known.
func (s *Session) PlannerSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plannerSessionID
}

// Content returns the accumulated draft content. Only meaningful once Run
// has returned.
func (s *Session) Content() string {
	return s.content.String()
}

// transition moves to next if allowed. Terminal states are absorbing.
func (s *Session) transition(next types.SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == types.StateIdle && next == types.StateStreaming,
		s.state == types.StateStreaming && next.IsTerminal(),
		s.state == types.StateIdle && next == types.StateFailed:
		s.state = next
		return true
	default:
		return false
	}
}

// Start runs the session in a new goroutine. The channel yields exactly one
// Outcome and is then closed.
func (s *Session) Start(ctx context.Context, stream io.Reader) <-chan types.Outcome {
	ch := make(chan types.Outcome, 1)
	go func() {
		defer close(ch)
		ch <- s.Run(ctx, stream)
	}()
	return ch
}

// Connect opens the stream with open and runs the session over it. A failure
// to open yields a connect-error outcome.
func (s *Session) Connect(ctx context.Context, open Opener) types.Outcome {
	start := s.now()
	stream, err := open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			if !s.transition(types.StateStreaming) {
				return s.alreadyStarted()
			}
			s.collector.IncSessionStarted()
			return s.finish(ctx, start, nil, nil, &StreamError{Kind: KindCanceled, Err: ctx.Err()})
		}
		if !s.transition(types.StateFailed) {
			return s.alreadyStarted()
		}
		s.collector.IncSessionStarted()
		s.collector.IncConnectErrors()
		s.logger.Error("stream connect failed", map[string]any{"error": err.Error()})
		return s.failed(start, &StreamError{Kind: KindConnect, Err: err})
	}
	return s.Run(ctx, stream)
}

// Run consumes stream until a terminal event, end of stream, a read error or
// cancellation, finalizes, and returns the session's single Outcome.
//
// Run takes ownership of stream: if it is an io.Closer it is closed before
// Run returns. A second call returns an outcome wrapping ErrAlreadyStarted
// without touching its stream.
func (s *Session) Run(ctx context.Context, stream io.Reader) types.Outcome {
	start := s.now()
	if !s.transition(types.StateStreaming) {
		return s.alreadyStarted()
	}
	s.collector.IncSessionStarted()
	s.logger.Info("stream started", map[string]any{
		"stall_timeout": s.config.StallTimeout.String(),
	})

	err := s.consume(ctx, stream)
	if c, ok := stream.(io.Closer); ok {
		_ = c.Close()
	}

	if ctx.Err() != nil {
		return s.finish(ctx, start, nil, nil, &StreamError{Kind: KindCanceled, Err: ctx.Err()})
	}
	if err != nil && s.terminal == nil {
		return s.finish(ctx, start, nil, nil, err)
	}
	if err != nil {
		// Transport errors after a terminal event are normal upstream exit.
		s.logger.Debug("stream closed after terminal event", map[string]any{"error": err.Error()})
	}

	plan, score, ferr := s.finalize(ctx)
	return s.finish(ctx, start, plan, score, ferr)
}

func (s *Session) alreadyStarted() types.Outcome {
	return types.Outcome{
		Status:    types.OutcomeFailed,
		Message:   ErrAlreadyStarted.Error(),
		Err:       ErrAlreadyStarted,
		SessionID: s.config.SessionID,
	}
}

// finish moves to the terminal state matching err and builds the Outcome.
// Cancellation observed at any point before this wins over every other result.
func (s *Session) finish(ctx context.Context, start time.Time, plan *types.CoursePlan, score *float64, err error) types.Outcome {
	if ctx.Err() != nil && !IsCanceled(err) {
		err = &StreamError{Kind: KindCanceled, Err: ctx.Err()}
		plan = nil
	}

	switch {
	case err == nil:
		s.transition(types.StateCompleted)
		s.collector.IncSessionCompleted()
		s.logger.Info("session completed", map[string]any{
			"epics":       len(plan.Epics),
			"stories":     plan.StoryCount(),
			"duration_ms": s.now().Sub(start).Milliseconds(),
		})
		return types.Outcome{
			Status:           types.OutcomeCompleted,
			Plan:             plan,
			SessionID:        s.config.SessionID,
			PlannerSessionID: s.PlannerSessionID(),
			QualityScore:     score,
			Duration:         s.now().Sub(start),
		}

	case IsCanceled(err):
		s.transition(types.StateCancelled)
		s.collector.IncSessionCancelled()
		s.logger.Info("session canceled", nil)
		return types.Outcome{
			Status:           types.OutcomeCancelled,
			Kind:             types.ErrorKindCanceled,
			Message:          types.UserMessage(types.ErrorKindCanceled),
			Err:              err,
			SessionID:        s.config.SessionID,
			PlannerSessionID: s.PlannerSessionID(),
			Duration:         s.now().Sub(start),
		}

	default:
		s.transition(types.StateFailed)
		return s.failed(start, err)
	}
}

func (s *Session) failed(start time.Time, err error) types.Outcome {
	kind := KindRead
	if k, ok := KindOf(err); ok {
		kind = k
	}
	s.collector.IncSessionFailed()
	s.logger.Error("session failed", map[string]any{
		"kind":  kind.String(),
		"error": err.Error(),
	})
	return types.Outcome{
		Status:           types.OutcomeFailed,
		Kind:             kind.ErrorKind(),
		Message:          types.UserMessage(kind.ErrorKind()),
		Err:              err,
		SessionID:        s.config.SessionID,
		PlannerSessionID: s.PlannerSessionID(),
		Duration:         s.now().Sub(start),
	}
}
