package config

import (
	"errors"
	"fmt"
	"time"
)

// Config represents a draftstream.yaml file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Planner  PlannerConfig  `yaml:"planner"`
	Stream   StreamConfig   `yaml:"stream"`
	Persist  PersistConfig  `yaml:"persist"`
	Progress ProgressConfig `yaml:"progress"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Log      LogConfig      `yaml:"log"`
}

// PlannerConfig locates the planner service.
type PlannerConfig struct {
	BaseURL string            `yaml:"base_url"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// StreamConfig tunes stream consumption.
type StreamConfig struct {
	// StallTimeout is nil when unset so an explicit "0s" can disable the guard.
	StallTimeout *Duration `yaml:"stall_timeout,omitempty"`
}

// PersistConfig selects the update-session backend.
type PersistConfig struct {
	Type      string            `yaml:"type"`
	URL       string            `yaml:"url"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Timeout   Duration          `yaml:"timeout,omitempty"`
	Retries   *int              `yaml:"retries,omitempty"`
	KeyPrefix string            `yaml:"key_prefix,omitempty"`
	Channel   string            `yaml:"channel,omitempty"`
	TTL       Duration          `yaml:"ttl,omitempty"`
}

// ProgressConfig enables progress publishing.
type ProgressConfig struct {
	RedisURL string `yaml:"redis_url"`
	Channel  string `yaml:"channel,omitempty"`
	Codec    string `yaml:"codec,omitempty"`
}

// ArchiveConfig enables the Lode draft archive.
type ArchiveConfig struct {
	Dataset     string `yaml:"dataset"`
	Source      string `yaml:"source"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// LogConfig sets logging defaults.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Persist backend types.
const (
	PersistNone    = "none"
	PersistWebhook = "webhook"
	PersistRedis   = "redis"
)

// Archive backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Validate checks enumerations and required pairs.
func (c *Config) Validate() error {
	var errs []error
	switch c.Persist.Type {
	case "", PersistNone:
	case PersistWebhook, PersistRedis:
		if c.Persist.URL == "" {
			errs = append(errs, fmt.Errorf("persist.url is required for persist.type %q", c.Persist.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown persist.type %q (want webhook, redis or none)", c.Persist.Type))
	}
	if c.Persist.Retries != nil && *c.Persist.Retries < 0 {
		errs = append(errs, fmt.Errorf("persist.retries must be >= 0, got %d", *c.Persist.Retries))
	}
	switch c.Archive.Backend {
	case "", BackendFS, BackendS3:
	default:
		errs = append(errs, fmt.Errorf("unknown archive.backend %q (want fs or s3)", c.Archive.Backend))
	}
	switch c.Progress.Codec {
	case "", "json", "msgpack":
	default:
		errs = append(errs, fmt.Errorf("unknown progress.codec %q (want json or msgpack)", c.Progress.Codec))
	}
	if c.Stream.StallTimeout != nil && c.Stream.StallTimeout.Duration < 0 {
		errs = append(errs, errors.New("stream.stall_timeout must be >= 0"))
	}
	return errors.Join(errs...)
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}
