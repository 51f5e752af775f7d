// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/pkg/drone"
)

// newListCommand creates the `droneyard list` command.
func newListCommand(app *App) *cobra.Command {
	var assimilating, cloned bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drones",
		Long: `List drones of the host repository.

By default the assimilated drones are listed: registered drones whose
worktree exists under the drones directory. --assimilating lists
registered drones without a worktree, --cloned the directories of the
drones directory that are not registered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if assimilating && cloned {
				return &ExitError{Code: exitUsage, Err: fmt.Errorf("--assimilating and --cloned are mutually exclusive")}
			}
			return listDrones(cmd.Context(), app, assimilating, cloned)
		},
	}

	cmd.Flags().BoolVar(&assimilating, "assimilating", false, "list registered drones that are not checked out")
	cmd.Flags().BoolVar(&cloned, "cloned", false, "list unregistered directories of the drones directory")
	return cmd
}

func listDrones(ctx context.Context, app *App, assimilating, cloned bool) error {
	ws, err := app.workspace(ctx)
	if err != nil {
		return err
	}

	if cloned {
		names, err := ws.registry.ListClonedOnly()
		if err != nil {
			return err
		}
		table, err := ws.registry.Table(ctx, nil)
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, registered := table[name]; !registered {
				fmt.Fprintln(app.stdout, name)
			}
		}
		return nil
	}

	filter := registry.FilterAssimilated
	if assimilating {
		filter = registry.FilterAssimilating
	}
	entries, err := ws.registry.ListAssimilated(ctx, nil, filter)
	if err != nil {
		return err
	}
	for _, e := range entries {
		line := string(e.Name)
		if url, ok := e.Props.Get(drone.PropURL); ok && app.verbose {
			line += "\t" + url
		}
		fmt.Fprintln(app.stdout, line)
	}
	return nil
}
