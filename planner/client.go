// Package planner opens the planner service's SSE streams.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omakasem/draftstream/iox"
	"github.com/omakasem/draftstream/types"
)

// DefaultTimeout bounds connecting and waiting for response headers. The
// stream body itself is bounded by the session's stall timeout instead.
const DefaultTimeout = 30 * time.Second

// ActionApprove is the respond action that starts enrichment.
const ActionApprove = "approve"

// Config configures a Client.
type Config struct {
	// BaseURL is the planner root, e.g. http://localhost:8000 (required).
	BaseURL string
	// Headers are added to every request.
	Headers map[string]string
	// Timeout bounds connect and response headers (default 30s).
	Timeout time.Duration
}

// StatusError is returned when the planner answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("planner: unexpected status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("planner: unexpected status %d", e.Code)
}

// ErrNoBody is returned when a 2xx response carries no stream body.
var ErrNoBody = errors.New("planner: response has no body")

// Client opens planner streams.
type Client struct {
	base    *url.URL
	headers map[string]string
	http    *http.Client
}

// New creates a client for cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("planner client requires a base URL")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("planner: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("planner: base URL must be http or https, got %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
	}
	return &Client{
		base:    base,
		headers: cfg.Headers,
		http:    &http.Client{Transport: transport},
	}, nil
}

type draftRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	TotalWeeks   int    `json:"total_weeks"`
	HoursPerWeek int    `json:"hours_per_week"`
}

type respondRequest struct {
	Action string `json:"action"`
}

// OpenDraftStream starts a draft for input and returns the SSE body.
func (c *Client) OpenDraftStream(ctx context.Context, input types.CourseInput) (io.ReadCloser, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.New("planner: course title is required")
	}
	return c.open(ctx, "/v1/sessions/stream", draftRequest{
		Title:        input.Title,
		Description:  input.Description,
		TotalWeeks:   input.TotalWeeks,
		HoursPerWeek: input.WeeklyHours,
	})
}

// OpenEnrichmentStream approves the draft of plannerSessionID and returns
// the enrichment SSE body.
func (c *Client) OpenEnrichmentStream(ctx context.Context, plannerSessionID string) (io.ReadCloser, error) {
	if plannerSessionID == "" {
		return nil, errors.New("planner: planner session id is required")
	}
	path := "/v1/sessions/" + url.PathEscape(plannerSessionID) + "/respond/stream"
	return c.open(ctx, path, respondRequest{Action: ActionApprove})
}

// DraftOpener binds OpenDraftStream to input, for draft.Session.Connect.
func (c *Client) DraftOpener(input types.CourseInput) func(context.Context) (io.ReadCloser, error) {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return c.OpenDraftStream(ctx, input)
	}
}

// EnrichmentOpener binds OpenEnrichmentStream to plannerSessionID.
func (c *Client) EnrichmentOpener(plannerSessionID string) func(context.Context) (io.ReadCloser, error) {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return c.OpenEnrichmentStream(ctx, plannerSessionID)
	}
}

func (c *Client) open(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("planner: marshal request: %w", err)
	}
	endpoint := c.base.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("planner: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("planner: request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer iox.DrainClose(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Body: iox.ReadSnippet(resp.Body, 256)}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrNoBody
	}
	return resp.Body, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
