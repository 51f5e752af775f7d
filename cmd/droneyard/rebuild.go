// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droneyard/droneyard/internal/issue"
	"github.com/droneyard/droneyard/internal/rebuild"
)

// newRebuildCommand creates the `droneyard rebuild` command.
func newRebuildCommand(app *App) *cobra.Command {
	var quick, batch bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild every drone, then the init files",
		Long: `Rebuild every enabled drone of the host, one at a time, then
byte-compile the host init files.

Rebuilding everything takes a while and may load code that conflicts
with a running Emacs, so it only runs in batch mode: from a script, a CI
job, or with --batch. --quick defers drones with build steps and drones
listed in build.expensive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rebuildAll(cmd.Context(), app, rebuild.Options{
				Quick: quick,
				Batch: batch || app.IsBatch(),
			})
		},
	}

	cmd.Flags().BoolVar(&quick, "quick", false, "defer expensive drones")
	cmd.Flags().BoolVar(&batch, "batch", false, "confirm a non-interactive rebuild")
	return cmd
}

func rebuildAll(ctx context.Context, app *App, opts rebuild.Options) error {
	ws, err := app.workspace(ctx)
	if err != nil {
		return err
	}

	summary, err := ws.orchestrator.RebuildAll(ctx, opts)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("rebuild drones").
			WithResource(ws.registry.Top()).
			WithSuggestion("Run 'droneyard rebuild --batch' from a script or CI job").
			Wrap(err).
			BuildError()
	}

	for _, r := range summary.Drones {
		printReport(app.stdout, r)
	}
	fmt.Fprintf(app.stdout, "%s %s\n", TitleStyle.Render("init files:"), summary.Host)
	fmt.Fprintln(app.stdout, TitleStyle.Render("summary:")+" "+summary.String())

	if _, _, failed := summary.Counts(); failed > 0 {
		return &ExitError{Code: exitFailure}
	}
	return nil
}
