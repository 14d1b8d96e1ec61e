package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/cli/config"
	"github.com/omakasem/draftstream/cli/reader"
)

// loadConfig reads the config file and overlays every flag the user set.
// Flags always win over config values.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return nil, err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	setString("planner-url", &cfg.Planner.BaseURL)
	if c.IsSet("planner-timeout") {
		cfg.Planner.Timeout = config.Duration{Duration: c.Duration("planner-timeout")}
	}

	if c.IsSet("stall-timeout") {
		cfg.Stream.StallTimeout = &config.Duration{Duration: c.Duration("stall-timeout")}
	}

	setString("persist", &cfg.Persist.Type)
	setString("persist-url", &cfg.Persist.URL)
	if c.IsSet("persist-retries") {
		n := c.Int("persist-retries")
		cfg.Persist.Retries = &n
	}

	setString("progress-redis", &cfg.Progress.RedisURL)
	setString("progress-codec", &cfg.Progress.Codec)

	setString("archive-dataset", &cfg.Archive.Dataset)
	setString("archive-backend", &cfg.Archive.Backend)
	setString("archive-path", &cfg.Archive.Path)
	setString("archive-region", &cfg.Archive.Region)
	setString("archive-endpoint", &cfg.Archive.Endpoint)

	setString("log-level", &cfg.Log.Level)
}

// archiveSource converts the archive section for the read path.
func archiveSource(cfg *config.Config) reader.Source {
	return reader.Source{
		Dataset:   cfg.Archive.Dataset,
		Backend:   cfg.Archive.Backend,
		Path:      cfg.Archive.Path,
		Region:    cfg.Archive.Region,
		Endpoint:  cfg.Archive.Endpoint,
		PathStyle: cfg.Archive.S3PathStyle,
	}
}

// openReader loads config and opens the archive for read-only commands.
func openReader(c *cli.Context) (*reader.Reader, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return reader.Open(c.Context, archiveSource(cfg))
}
