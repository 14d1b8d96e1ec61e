package draft

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/omakasem/draftstream/extract"
	"github.com/omakasem/draftstream/sse"
	"github.com/omakasem/draftstream/types"
)

// PhaseDetail is the enrichment phase that announces per-epic generation.
const PhaseDetail = "detail"

// terminal is a terminal event whose message is still being collected.
type terminal struct {
	event types.EventName
	// values holds the raw data lines that followed the event line.
	values []string
	done   bool
}

// epicStream accumulates one epic's enrichment tokens.
type epicStream struct {
	id       string
	title    string
	content  strings.Builder
	stories  []types.Fragment
	complete bool
}

type chunk struct {
	data []byte
	err  error
}

// readLoop performs one read at a time and hands each chunk over unbuffered,
// so the consumer is never more than one read behind the stream.
func (s *Session) readLoop(r io.Reader, out chan<- chunk, stop <-chan struct{}) {
	for {
		buf := make([]byte, s.config.ReadSize)
		n, err := r.Read(buf)
		select {
		case out <- chunk{data: buf[:n], err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// consume reads until the terminal message is complete, end of stream, a
// read failure, a stall or cancellation. A nil return means finalization
// should proceed.
func (s *Session) consume(ctx context.Context, stream io.Reader) error {
	chunks := make(chan chunk)
	stop := make(chan struct{})
	defer close(stop)
	go s.readLoop(stream, chunks, stop)

	var stall <-chan time.Time
	var timer *time.Timer
	if s.config.StallTimeout > 0 {
		timer = time.NewTimer(s.config.StallTimeout)
		defer timer.Stop()
		stall = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-stall:
			s.collector.IncStalls()
			s.logger.Warn("stream stalled", map[string]any{
				"stall_timeout": s.config.StallTimeout.String(),
				"content_bytes": s.content.Len(),
			})
			return &StreamError{Kind: KindRead, Err: ErrStreamStalled}

		case c := <-chunks:
			if timer != nil {
				timer.Reset(s.config.StallTimeout)
			}
			if len(c.data) > 0 {
				s.collector.AddBytesRead(len(c.data))
				lines, err := s.decoder.Ingest(c.data)
				if err != nil {
					s.collector.IncReadErrors()
					return &StreamError{Kind: KindRead, Err: err}
				}
				if s.handleLines(ctx, lines) {
					return nil
				}
			}
			if c.err == nil {
				continue
			}
			if errors.Is(c.err, io.EOF) {
				lines, err := s.decoder.Flush()
				if err != nil {
					s.collector.IncReadErrors()
					return &StreamError{Kind: KindRead, Err: err}
				}
				s.handleLines(ctx, lines)
				if s.terminal != nil {
					s.terminal.done = true
				}
				s.logger.Debug("stream ended", map[string]any{
					"terminal":      s.terminal != nil,
					"content_bytes": s.content.Len(),
				})
				return nil
			}
			s.collector.IncReadErrors()
			return &StreamError{Kind: KindRead, Err: fmt.Errorf("read stream: %w", c.err)}
		}
	}
}

// handleLines applies complete lines in order and reports whether the
// terminal message is complete. Lines after it are ignored.
func (s *Session) handleLines(ctx context.Context, lines []string) bool {
	s.collector.AddLines(len(lines))
	dirty := false
	for _, raw := range lines {
		if s.handleLine(raw) {
			dirty = true
		}
		if s.terminal != nil && s.terminal.done {
			break
		}
	}
	if dirty {
		s.notify(ctx)
	}
	return s.terminal != nil && s.terminal.done
}

// handleLine applies one line and reports whether progress changed.
func (s *Session) handleLine(raw string) bool {
	line := sse.Classify(raw)
	switch line.Kind {
	case sse.LineBlank:
		if s.terminal != nil {
			s.terminal.done = true
		}
	case sse.LineEvent:
		if s.terminal != nil {
			s.terminal.done = true
			return false
		}
		s.collector.IncEventsSeen()
		name := types.EventName(line.Value)
		if name.IsTerminal(s.config.Mode) {
			s.logger.Debug("terminal event", map[string]any{"event": line.Value})
			s.terminal = &terminal{event: name, done: !s.awaitsMessage(name)}
		}
	case sse.LineData:
		if s.terminal != nil {
			s.terminal.values = append(s.terminal.values, line.Value)
			return false
		}
		payload, err := sse.ParseData(line.Value)
		if err != nil {
			s.collector.IncDroppedLines()
			s.logger.Debug("dropped data line", map[string]any{"error": err.Error()})
			return false
		}
		if s.config.Mode == types.ModeEnrichment {
			return s.applyEnrichment(payload)
		}
		return s.applyDraft(payload)
	}
	return false
}

// awaitsMessage reports whether a terminal event's data lines are needed:
// the upstream error text, or the plan closing an enrichment stream. Other
// terminal events finalize on the event line itself.
func (s *Session) awaitsMessage(name types.EventName) bool {
	return name == types.EventError || s.config.Mode == types.ModeEnrichment
}

func (s *Session) applyDraft(p *types.DataPayload) bool {
	changed := s.applyMeta(p)
	if p.Phase != "" {
		s.mu.Lock()
		s.phase = p.Phase
		if p.Step != nil {
			s.step = *p.Step
		}
		s.mu.Unlock()
		changed = true
	}
	if p.Content != nil && *p.Content != "" {
		s.content.WriteString(*p.Content)
		s.collector.IncContentDeltas()
		frags := extract.Epics(s.content.String())
		s.mu.Lock()
		s.fragments = frags
		s.mu.Unlock()
		changed = true
	}
	return changed
}

// applyEnrichment follows the enrichment payload shapes in priority order:
// phase start, detail start, epic start, epic token, epic complete.
func (s *Session) applyEnrichment(p *types.DataPayload) bool {
	changed := s.applyMeta(p)
	epicID := ""
	if p.EpicID != nil {
		epicID = string(*p.EpicID)
	}

	switch {
	case p.Phase != "" && p.Description != "" && p.Step != nil:
		s.mu.Lock()
		s.phase = p.Phase
		s.phaseDescription = p.Description
		s.step = *p.Step
		s.mu.Unlock()
		changed = true

	case p.Phase == PhaseDetail && p.TotalEpics != nil:
		s.mu.Lock()
		s.phase = p.Phase
		s.totalEpics = *p.TotalEpics
		s.mu.Unlock()
		changed = true

	case epicID != "" && p.Title != "" && p.Content == nil && !p.HasProgress():
		e := s.epic(epicID)
		e.title = p.Title
		s.mu.Lock()
		s.currentEpic = p.Title
		s.mu.Unlock()
		s.refreshEpics()
		changed = true

	case epicID != "" && p.Content != nil:
		e := s.epic(epicID)
		e.content.WriteString(*p.Content)
		s.collector.IncContentDeltas()
		e.stories = extract.Stories(e.content.String())
		s.refreshEpics()
		changed = true

	case epicID != "" && p.HasProgress():
		s.epic(epicID).complete = true
		s.refreshEpics()
		changed = true
	}

	if p.HasPlan() && p.QualityScore != nil {
		s.lastPlan = p
	}
	return changed
}

// applyMeta records the planner session id the first time it is seen.
func (s *Session) applyMeta(p *types.DataPayload) bool {
	if p.SessionID == "" {
		return false
	}
	s.mu.Lock()
	known := s.plannerSessionID != ""
	if !known {
		s.plannerSessionID = p.SessionID
	}
	s.mu.Unlock()
	if known {
		return false
	}
	s.logger = s.logger.WithPlannerSession(p.SessionID)
	return true
}

func (s *Session) epic(id string) *epicStream {
	for _, e := range s.epics {
		if e.id == id {
			return e
		}
	}
	e := &epicStream{id: id}
	s.epics = append(s.epics, e)
	return e
}

// refreshEpics rebuilds the enrichment fragment list: one fragment per
// started epic, stories as children.
func (s *Session) refreshEpics() {
	frags := make([]types.Fragment, 0, len(s.epics))
	for i, e := range s.epics {
		title := e.title
		if title == "" {
			title = e.id
		}
		frags = append(frags, types.Fragment{
			Index:      i + 1,
			Title:      title,
			Children:   e.stories,
			IsComplete: e.complete,
		})
	}
	s.mu.Lock()
	s.fragments = frags
	s.mu.Unlock()
}

// notify delivers a progress snapshot unless the session was canceled.
func (s *Session) notify(ctx context.Context) {
	if len(s.observers) == 0 || ctx.Err() != nil {
		return
	}
	p := s.progress()
	for _, o := range s.observers {
		if ctx.Err() != nil {
			return
		}
		o.Observe(p)
	}
}

func (s *Session) progress() types.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.Progress{
		SessionID:        s.config.SessionID,
		PlannerSessionID: s.plannerSessionID,
		Mode:             s.config.Mode,
		Phase:            s.phase,
		PhaseDescription: s.phaseDescription,
		Step:             s.step,
		TotalEpics:       s.totalEpics,
		CurrentEpic:      s.currentEpic,
		Epics:            append([]types.Fragment(nil), s.fragments...),
		ContentBytes:     s.content.Len(),
		Version:          types.RecordVersion,
	}
}
