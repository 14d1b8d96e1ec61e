package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/cli/reader"
	"github.com/omakasem/draftstream/cli/render"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ListCommand returns the list command with subcommands.
// List returns thin slices, not inspect-level detail.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List archived entities (drafts)",
		Subcommands: []*cli.Command{
			listDraftsCommand(),
		},
	}
}

func listDraftsCommand() *cli.Command {
	return &cli.Command{
		Name:  "drafts",
		Usage: "List archived drafts, newest first",
		Flags: append(append(ReadOnlyFlags(), archiveFlags()...),
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by status: ready, enriched",
			},
			&cli.StringFlag{
				Name:  "day",
				Usage: "Filter by partition day (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Filter by source partition",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of drafts to return (0 = no limit)",
				Value: 0,
			},
		),
		Action: listDraftsAction,
	}
}

func listDraftsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	rd, err := openReader(c)
	if err != nil {
		return err
	}

	opts := reader.ListOptions{
		Status: c.String("status"),
		Day:    c.String("day"),
		Source: c.String("source"),
		Limit:  c.Int("limit"),
	}
	results, err := rd.ListDrafts(c.Context, opts)
	if err != nil {
		return fmt.Errorf("failed to list drafts: %w", err)
	}

	// Warn if output is large and --limit was not specified (TTY only to avoid noise in pipelines)
	if len(results) > listWarningThreshold && opts.Limit == 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d results. Consider using --limit to reduce output.\n\n", len(results))
	}

	return r.Render(results)
}
