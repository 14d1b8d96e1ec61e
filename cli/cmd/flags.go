// Package cmd provides CLI commands for the draftstream binary.
package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/lode"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select commands (inspect, stats, generate, enrich, replay).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode",
	}

	// ConfigFlag points at a draftstream.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file (default: ./draftstream.yaml if present)",
		EnvVars: []string{"DRAFTSTREAM_CONFIG"},
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// archiveFlags locate the Lode archive. Values override archive.* config keys.
func archiveFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		&cli.StringFlag{Name: "archive-dataset", Usage: "Lode dataset ID (default: \"" + lode.DefaultDataset + "\")"},
		&cli.StringFlag{Name: "archive-backend", Usage: "Archive backend: fs or s3"},
		&cli.StringFlag{Name: "archive-path", Usage: "Archive path (fs: directory, s3: bucket/prefix)", EnvVars: []string{"DRAFTSTREAM_ARCHIVE_PATH"}},
		&cli.StringFlag{Name: "archive-region", Usage: "AWS region for S3 backend (optional, uses default chain)"},
		&cli.StringFlag{Name: "archive-endpoint", Usage: "Custom S3 endpoint (MinIO, R2)"},
	}
}

// sessionFlags are shared by the commands that consume a stream.
func sessionFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "session-id",
			Usage:    "Session ID in the session store",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "stall-timeout",
			Usage: "Fail when no bytes arrive for this long (0 disables)",
			Value: 60 * time.Second,
		},
		&cli.StringFlag{
			Name:  "persist",
			Usage: "Update-session backend: webhook, redis or none",
		},
		&cli.StringFlag{
			Name:    "persist-url",
			Usage:   "Webhook endpoint or Redis URL for the update-session call",
			EnvVars: []string{"DRAFTSTREAM_PERSIST_URL"},
		},
		&cli.IntFlag{
			Name:  "persist-retries",
			Usage: "Retry attempts for the update-session call",
		},
		&cli.StringFlag{
			Name:  "progress-redis",
			Usage: "Redis URL to publish progress snapshots to",
		},
		&cli.StringFlag{
			Name:  "progress-codec",
			Usage: "Progress snapshot codec: json or msgpack",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Write logs to this file instead of stderr",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress result output",
		},
		FormatFlag,
		NoColorFlag,
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Follow the stream in a live view",
		},
	}
	return append(flags, archiveFlags()...)
}

// plannerFlags locate the planner service.
func plannerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "planner-url",
			Usage:   "Planner base URL",
			EnvVars: []string{"DRAFTSTREAM_PLANNER_URL"},
		},
		&cli.DurationFlag{
			Name:  "planner-timeout",
			Usage: "Planner connect and response-header timeout",
		},
	}
}
