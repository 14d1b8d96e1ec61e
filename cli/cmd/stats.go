package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/cli/render"
	"github.com/omakasem/draftstream/cli/tui"
)

// StatsCommand returns the stats command with subcommands.
// Stats returns archived counters.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show archived session metrics",
		Subcommands: []*cli.Command{
			statsSessionCommand(),
		},
	}
}

func statsSessionCommand() *cli.Command {
	return &cli.Command{
		Name:      "session",
		Usage:     "Show the latest metrics of a session (or of any session when omitted)",
		ArgsUsage: "[session-id]",
		Flags:     append(ReadOnlyFlags(), archiveFlags()...),
		Action:    statsSessionAction,
	}
}

func statsSessionAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	rd, err := openReader(c)
	if err != nil {
		return err
	}
	stats, err := rd.SessionStats(c.Context, c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read metrics: %w", err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsSession, stats.Snapshot)
	}
	return r.Render(stats)
}
