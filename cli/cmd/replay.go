package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/draft"
	"github.com/omakasem/draftstream/log"
	"github.com/omakasem/draftstream/types"
)

// ReplayCommand returns the replay command: feed a captured SSE stream
// through a session as if the planner were sending it.
func ReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay a captured SSE stream file (\"-\" for stdin) through a session",
		ArgsUsage: "<file>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Stream mode: draft or enrichment",
				Value: string(types.ModeDraft),
			},
			&cli.StringFlag{
				Name:  "planner-session-id",
				Usage: "Planner session ID (enrichment mode)",
			},
		}, sessionFlags()...),
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("stream file required", exitStream)
	}
	path := c.Args().First()

	mode := types.Mode(c.String("mode"))
	if mode != types.ModeDraft && mode != types.ModeEnrichment {
		return cli.Exit(fmt.Sprintf("invalid mode: %q (must be draft or enrichment)", mode), exitStream)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitStream)
	}

	rt, err := newSessionRuntime(c, cfg, log.SessionMeta{
		SessionID:        c.String("session-id"),
		Mode:             mode,
		PlannerSessionID: c.String("planner-session-id"),
	})
	if err != nil {
		return cli.Exit(err.Error(), exitPersist)
	}
	defer func() { _ = rt.Close() }()

	return runSession(c, rt, "replay "+filepath.Base(path), func(ctx context.Context, s *draft.Session) types.Outcome {
		return s.Connect(ctx, fileOpener(path))
	})
}

// fileOpener opens a capture file, or stdin for "-".
func fileOpener(path string) draft.Opener {
	return func(context.Context) (io.ReadCloser, error) {
		if path == "-" {
			return io.NopCloser(os.Stdin), nil
		}
		return os.Open(path)
	}
}
