package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/draft"
	"github.com/omakasem/draftstream/log"
	"github.com/omakasem/draftstream/types"
)

// EnrichCommand returns the enrich command: approve a draft and follow the
// per-epic enrichment stream until the enriched plan is persisted.
func EnrichCommand() *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Approve a draft and stream its enrichment from the planner",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{
				Name:     "planner-session-id",
				Usage:    "Planner session ID returned by the draft stream",
				Required: true,
			},
		}, plannerFlags()...), sessionFlags()...),
		Action: enrichAction,
	}
}

func enrichAction(c *cli.Context) error {
	cfg, client, err := plannerSetup(c)
	if err != nil {
		return cli.Exit(err.Error(), exitStream)
	}
	defer func() { _ = client.Close() }()

	plannerSessionID := c.String("planner-session-id")
	rt, err := newSessionRuntime(c, cfg, log.SessionMeta{
		SessionID:        c.String("session-id"),
		Mode:             types.ModeEnrichment,
		PlannerSessionID: plannerSessionID,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitPersist)
	}
	defer func() { _ = rt.Close() }()

	return runSession(c, rt, "enrichment "+plannerSessionID, func(ctx context.Context, s *draft.Session) types.Outcome {
		return s.Connect(ctx, client.EnrichmentOpener(plannerSessionID))
	})
}
