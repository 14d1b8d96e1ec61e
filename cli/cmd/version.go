package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/cli/render"
	"github.com/omakasem/draftstream/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	RecordVersion string `json:"record_version"`
}

// VersionCommand returns the version command.
// It must not contact the planner.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  ReadOnlyFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}

		// TUI not supported for version command
		if c.Bool("tui") {
			return cli.Exit("--tui is not supported for version command", 1)
		}

		return r.Render(VersionResponse{
			Version:       types.Version,
			Commit:        commit,
			RecordVersion: types.RecordVersion,
		})
	}
}
