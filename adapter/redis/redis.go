// Package redis implements the update-session call against Redis.
//
// Each update is an idempotent upsert: the session document is SET under a
// key derived from the session id and a notification is PUBLISHed to a
// channel, in one MULTI/EXEC transaction. Repeating an update overwrites
// the same key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/omakasem/draftstream/adapter"
	"github.com/omakasem/draftstream/types"
)

// DefaultKeyPrefix is the default prefix of session document keys.
const DefaultKeyPrefix = "draftstream:session:"

// DefaultChannel is the default notification channel.
const DefaultChannel = "draftstream:session_updated"

// DefaultTimeout is the default per-attempt timeout.
const DefaultTimeout = 5 * time.Second

// Config configures the Redis adapter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// KeyPrefix prefixes the session id to form the document key.
	KeyPrefix string
	// Channel receives one notification per update.
	Channel string
	// TTL expires the document; zero keeps it forever.
	TTL time.Duration
	// Timeout is the per-attempt timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure (default 0).
	Retries int
}

// Notification is the message published after each upsert.
type Notification struct {
	SessionID string              `json:"sessionId"`
	Status    types.SessionStatus `json:"status"`
	Key       string              `json:"key"`
}

// Adapter persists session updates into Redis.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis adapter from the given config.
// Returns an error if the URL is empty or invalid.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("ttl must be >= 0, got %s", cfg.TTL)
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Key returns the document key of a session.
func (a *Adapter) Key(sessionID string) string {
	return a.config.KeyPrefix + sessionID
}

// UpdateSession upserts the session document and publishes a notification.
func (a *Adapter) UpdateSession(ctx context.Context, update *types.SessionUpdate) error {
	if update == nil || update.SessionID == "" {
		return errors.New("redis: update requires a session id")
	}
	doc, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("redis: marshal update: %w", err)
	}
	key := a.Key(update.SessionID)
	note, err := json.Marshal(Notification{SessionID: update.SessionID, Status: update.Status, Key: key})
	if err != nil {
		return fmt.Errorf("redis: marshal notification: %w", err)
	}

	var lastErr error
	attempts := 1 + a.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}

		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		_, lastErr = a.client.TxPipelined(attemptCtx, func(pipe goredis.Pipeliner) error {
			pipe.Set(attemptCtx, key, doc, a.config.TTL)
			pipe.Publish(attemptCtx, a.config.Channel, note)
			return nil
		})
		cancel()

		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// Get loads a stored session document.
func (a *Adapter) Get(ctx context.Context, sessionID string) (*types.SessionUpdate, error) {
	data, err := a.client.Get(ctx, a.Key(sessionID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", sessionID, err)
	}
	var update types.SessionUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, fmt.Errorf("redis: decode %s: %w", sessionID, err)
	}
	return &update, nil
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Updater = (*Adapter)(nil)
