// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/droneyard/droneyard/internal/issue"
	"github.com/droneyard/droneyard/internal/rebuild"
	"github.com/droneyard/droneyard/pkg/drone"
)

// newBuildCommand creates the `droneyard build` command.
func newBuildCommand(app *App) *cobra.Command {
	var worker bool

	cmd := &cobra.Command{
		Use:   "build <drone>",
		Short: "Build one drone",
		Long: `Build one drone: run its build steps or generate its autoloads,
byte-compile it and build its manuals.

With --worker the build runs in a child droneyard process whose output is
streamed line by line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := drone.Name(args[0])
			if worker {
				return spawnBuild(cmd.Context(), app, name)
			}
			return buildDrone(cmd.Context(), app, name)
		},
	}

	cmd.Flags().BoolVar(&worker, "worker", false, "build in a child process")
	return cmd
}

// buildDrone builds name in this process and prints the report.
func buildDrone(ctx context.Context, app *App, name drone.Name) error {
	if err := name.Validate(); err != nil {
		return err
	}
	ws, err := app.workspace(ctx)
	if err != nil {
		return err
	}

	report, err := ws.orchestrator.Build(ctx, nil, name)
	printReport(app.stdout, report)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("build drone").
			WithResource(string(name)).
			WithSuggestion("Run with --verbose to see every build step").
			Wrap(err).
			BuildError()
	}
	return nil
}

// spawnBuild builds name in a worker process running this executable.
func spawnBuild(ctx context.Context, app *App, name drone.Name) error {
	if err := name.Validate(); err != nil {
		return err
	}
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	exe, err := app.Executable()
	if err != nil {
		return fmt.Errorf("locate droneyard executable: %w", err)
	}

	if err := rebuild.SpawnBuild(ctx, exe, name, app.stdout, app.workerEnv(cfg)...); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The worker already reported why.
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return err
	}
	return nil
}

// printReport writes one line per drone outcome.
func printReport(w io.Writer, r rebuild.Report) {
	switch {
	case r.Skip != rebuild.SkipNone:
		fmt.Fprintf(w, "%s %s (%s)\n", WarningStyle.Render("skipped"), CmdStyle.Render(string(r.Name)), r.Skip)
	case r.Err != nil:
		fmt.Fprintf(w, "%s %s: %v\n", ErrorStyle.Render("failed"), CmdStyle.Render(string(r.Name)), r.Err)
	default:
		fmt.Fprintf(w, "%s %s: %s\n", SuccessStyle.Render("built"), CmdStyle.Render(string(r.Name)), r.Tally)
	}
	for _, f := range r.Tally.Failures {
		fmt.Fprintf(w, "  %s %s\n", ErrorStyle.Render("✗"), f.File)
	}
	for _, f := range r.Manual.Failures {
		fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("manual"), f.File)
	}
}
