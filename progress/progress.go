// Package progress publishes out-of-band progress snapshots of a streaming
// session to Redis pub/sub.
//
// Publishing is best-effort: a failed publish is logged and counted but
// never affects the session outcome.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/omakasem/draftstream/draft"
	"github.com/omakasem/draftstream/log"
	"github.com/omakasem/draftstream/metrics"
	"github.com/omakasem/draftstream/types"
)

// DefaultChannelPrefix prefixes the session id when Config.Channel is empty.
const DefaultChannelPrefix = "draftstream:progress:"

// DefaultTimeout bounds one publish.
const DefaultTimeout = 2 * time.Second

// Config configures a Publisher.
type Config struct {
	// URL is the Redis connection URL (required).
	URL string
	// Channel is the pub/sub channel. Empty derives one per session id.
	Channel string
	// Codec is "json" (default) or "msgpack".
	Codec string
	// Timeout bounds each publish (default 2s).
	Timeout time.Duration
}

// Publisher is a draft.Observer that publishes each snapshot.
type Publisher struct {
	config    Config
	client    *goredis.Client
	codec     Codec
	logger    *log.Logger
	collector *metrics.Collector
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the publisher logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// WithCollector records publish outcomes into c.
func WithCollector(c *metrics.Collector) Option {
	return func(p *Publisher) { p.collector = c }
}

// NewPublisher creates a publisher from cfg.
func NewPublisher(cfg Config, opts ...Option) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("progress publisher requires a URL")
	}
	redisOpts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("progress publisher: invalid URL: %w", err)
	}
	codec, err := CodecFor(cfg.Codec)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	p := &Publisher{
		config: cfg,
		client: goredis.NewClient(redisOpts),
		codec:  codec,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.NewNop()
	}
	return p, nil
}

// Channel returns the channel snapshots of sessionID are published to.
func (p *Publisher) Channel(sessionID string) string {
	if p.config.Channel != "" {
		return p.config.Channel
	}
	return DefaultChannelPrefix + sessionID
}

// Publish encodes and publishes one snapshot.
func (p *Publisher) Publish(ctx context.Context, snap types.Progress) error {
	data, err := p.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("progress: encode: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.Channel(snap.SessionID), data).Err(); err != nil {
		return fmt.Errorf("progress: publish: %w", err)
	}
	return nil
}

// Observe implements draft.Observer. Failures are logged and dropped.
func (p *Publisher) Observe(snap types.Progress) {
	if err := p.Publish(context.Background(), snap); err != nil {
		p.collector.IncProgressFailed()
		p.logger.Warn("progress publish failed", map[string]any{"error": err.Error()})
		return
	}
	p.collector.IncProgressPublished()
}

// Close releases the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Recorder keeps every observed snapshot in memory.
type Recorder struct {
	mu    sync.Mutex
	snaps []types.Progress
}

// Observe implements draft.Observer.
func (r *Recorder) Observe(snap types.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

// Snapshots returns a copy of the recorded snapshots in order.
func (r *Recorder) Snapshots() []types.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Progress(nil), r.snaps...)
}

// Last returns the most recent snapshot.
func (r *Recorder) Last() (types.Progress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return types.Progress{}, false
	}
	return r.snaps[len(r.snaps)-1], true
}

var (
	_ draft.Observer = (*Publisher)(nil)
	_ draft.Observer = (*Recorder)(nil)
)
