package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/omakasem/draftstream/normalize"
	"github.com/omakasem/draftstream/sse"
	"github.com/omakasem/draftstream/types"
)

// finalize builds the plan, persists it and returns it. It runs once, on
// either the terminal event path or the end-of-stream fallback.
func (s *Session) finalize(ctx context.Context) (*types.CoursePlan, *float64, error) {
	if s.terminal != nil && s.terminal.event == types.EventError {
		s.collector.IncReadErrors()
		return nil, nil, &StreamError{
			Kind: KindRead,
			Err:  fmt.Errorf("%w: %s", ErrUpstream, s.terminal.message()),
		}
	}

	plan, score, err := s.resolvePlan()
	if err != nil {
		s.collector.IncParseErrors()
		return nil, nil, &StreamError{Kind: KindParse, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, &StreamError{Kind: KindCanceled, Err: err}
	}

	update := &types.SessionUpdate{
		SessionID:        s.config.SessionID,
		PlannerSessionID: s.PlannerSessionID(),
		Draft:            &plan,
		Status:           types.StatusFor(s.config.Mode),
		QualityScore:     score,
	}
	if err := s.updater.UpdateSession(ctx, update); err != nil {
		s.collector.IncPersistFailure()
		if ctx.Err() != nil {
			return nil, nil, &StreamError{Kind: KindCanceled, Err: ctx.Err()}
		}
		return nil, nil, &StreamError{Kind: KindPersist, Err: fmt.Errorf("update session: %w", err)}
	}
	s.collector.IncPersistSuccess()
	return &plan, score, nil
}

// resolvePlan picks the plan source. Draft mode always parses the
// accumulated content. Enrichment mode uses the plan carried by the terminal
// message, then the last plan payload seen.
func (s *Session) resolvePlan() (types.CoursePlan, *float64, error) {
	if s.config.Mode == types.ModeEnrichment {
		if p := s.terminal.payload(); p != nil && p.HasPlan() {
			plan, err := normalize.ParsePlan(p.Plan)
			return plan, p.QualityScore, err
		}
		if s.lastPlan == nil {
			return types.CoursePlan{}, nil, ErrNoPlan
		}
		s.logger.Debug("using last plan payload", nil)
		plan, err := normalize.ParsePlan(s.lastPlan.Plan)
		return plan, s.lastPlan.QualityScore, err
	}

	content := s.content.String()
	if strings.TrimSpace(content) == "" {
		return types.CoursePlan{}, nil, ErrNoContent
	}
	plan, err := normalize.ParseDraft(content)
	return plan, nil, err
}

// payload returns the first decodable data payload of the terminal message.
func (t *terminal) payload() *types.DataPayload {
	if t == nil {
		return nil
	}
	for _, v := range t.values {
		if p, err := sse.ParseData(v); err == nil {
			return p
		}
	}
	return nil
}

// message returns the upstream error text of an error event.
func (t *terminal) message() string {
	if p := t.payload(); p != nil && p.Error != "" {
		return p.Error
	}
	for _, v := range t.values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return "no detail"
}
