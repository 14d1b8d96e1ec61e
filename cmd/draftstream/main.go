// Package main provides the draftstream CLI entrypoint.
//
// Usage:
//
//	draftstream <command> [subcommand] [options]
//
// Exit codes for generate, enrich and replay:
//   - 0: draft completed and persisted
//   - 1: the streamed draft did not parse
//   - 2: the stream failed to connect or broke while reading
//   - 3: the update-session call failed
//   - 130: canceled (SIGINT/SIGTERM or quitting the live view)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/omakasem/draftstream/cli/cmd"
	"github.com/omakasem/draftstream/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "draftstream",
		Usage:          "Stream, render and persist curriculum drafts from the planner",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.GenerateCommand(),
			cmd.EnrichCommand(),
			cmd.ReplayCommand(),
			cmd.ExtractCommand(),
			cmd.ListCommand(),
			cmd.InspectCommand(),
			cmd.StatsCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitMessage(exitCoder); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// exitMessage returns the text worth printing for an exit error.
// cli.Exit("", N).Error() yields "exit status N", which is noise.
func exitMessage(ec cli.ExitCoder) string {
	msg := ec.Error()
	if msg == fmt.Sprintf("exit status %d", ec.ExitCode()) {
		return ""
	}
	return msg
}
