// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/droneyard/droneyard/pkg/drone"
)

// newInternalCommand creates the hidden parent of subcommands droneyard
// runs in child processes.
func newInternalCommand(app *App) *cobra.Command {
	internalCmd := &cobra.Command{
		Use:    "internal",
		Short:  "Internal commands (not for direct use)",
		Hidden: true,
	}

	internalCmd.AddCommand(&cobra.Command{
		Use:   "build <drone>",
		Short: "Build one drone in this process (build worker entry point)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildDrone(cmd.Context(), app, drone.Name(args[0]))
		},
	})

	return internalCmd
}
