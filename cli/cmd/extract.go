package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/cli/render"
	"github.com/omakasem/draftstream/extract"
)

// ExtractCommand returns the extract command: run the fragment extractor
// over a (possibly truncated) draft document.
func ExtractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract provisional fragments from partial draft JSON (\"-\" for stdin)",
		ArgsUsage: "<file>",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "field",
				Usage: "Array field to extract: epics or stories",
				Value: "epics",
			},
		),
		Action: extractAction,
	}
}

func extractAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("file required", 1)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for extract command", 1)
	}

	field := c.String("field")
	if field != "epics" && field != "stories" {
		return cli.Exit(fmt.Sprintf("invalid field: %q (must be epics or stories)", field), 1)
	}

	content, err := readInput(c.Args().First())
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.RenderFragments(extract.Extract(string(content), field))
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return data, nil
}
