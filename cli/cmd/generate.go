package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/cli/config"
	"github.com/omakasem/draftstream/draft"
	"github.com/omakasem/draftstream/log"
	"github.com/omakasem/draftstream/planner"
	"github.com/omakasem/draftstream/types"
)

// GenerateCommand returns the generate command: submit a course input to
// the planner and follow the draft stream until the draft is persisted.
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Stream a curriculum draft from the planner and persist it",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Course title", Required: true},
			&cli.StringFlag{Name: "description", Usage: "Course description"},
			&cli.IntFlag{Name: "weeks", Usage: "Total weeks", Value: 4},
			&cli.IntFlag{Name: "hours", Usage: "Study hours per week", Value: 5},
		}, plannerFlags()...), sessionFlags()...),
		Action: generateAction,
	}
}

func generateAction(c *cli.Context) error {
	input := types.CourseInput{
		Title:       c.String("title"),
		Description: c.String("description"),
		TotalWeeks:  c.Int("weeks"),
		WeeklyHours: c.Int("hours"),
	}
	if input.TotalWeeks <= 0 || input.WeeklyHours <= 0 {
		return cli.Exit("--weeks and --hours must be positive", exitParse)
	}

	cfg, client, err := plannerSetup(c)
	if err != nil {
		return cli.Exit(err.Error(), exitStream)
	}
	defer func() { _ = client.Close() }()

	rt, err := newSessionRuntime(c, cfg, log.SessionMeta{
		SessionID: c.String("session-id"),
		Mode:      types.ModeDraft,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitPersist)
	}
	defer func() { _ = rt.Close() }()

	return runSession(c, rt, input.Title, func(ctx context.Context, s *draft.Session) types.Outcome {
		return s.Connect(ctx, client.DraftOpener(input))
	})
}

// plannerSetup loads config and creates the planner client.
func plannerSetup(c *cli.Context) (*config.Config, *planner.Client, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Planner.BaseURL == "" {
		return nil, nil, errors.New("planner URL is required (--planner-url or planner.base_url)")
	}
	client, err := planner.New(planner.Config{
		BaseURL: cfg.Planner.BaseURL,
		Headers: cfg.Planner.Headers,
		Timeout: cfg.Planner.Timeout.Duration,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create planner client: %w", err)
	}
	return cfg, client, nil
}
