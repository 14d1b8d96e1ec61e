package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/cli/render"
	"github.com/omakasem/draftstream/cli/tui"
)

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single entity.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a single archived entity (draft)",
		Subcommands: []*cli.Command{
			inspectDraftCommand(),
		},
	}
}

func inspectDraftCommand() *cli.Command {
	return &cli.Command{
		Name:      "draft",
		Usage:     "Inspect the latest archived draft of a session",
		ArgsUsage: "<session-id>",
		Flags:     append(ReadOnlyFlags(), archiveFlags()...),
		Action:    inspectDraftAction,
	}
}

func inspectDraftAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("session-id required", 1)
	}
	sessionID := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	rd, err := openReader(c)
	if err != nil {
		return err
	}
	rec, err := rd.InspectDraft(c.Context, sessionID)
	if err != nil {
		return fmt.Errorf("failed to read draft %s: %w", sessionID, err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectDraft, rec)
	}
	if r.Format() == render.FormatTable {
		if err := r.Render(rec.DraftSummary); err != nil {
			return err
		}
		fmt.Println()
		return r.RenderPlan(&rec.Plan)
	}
	return r.Render(rec)
}
