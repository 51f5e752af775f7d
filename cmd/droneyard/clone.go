// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droneyard/droneyard/internal/issue"
	"github.com/droneyard/droneyard/pkg/drone"
)

// newCloneCommand creates the `droneyard clone` command.
func newCloneCommand(app *App) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "clone <name> [url]",
		Short: "Clone a drone without registering it",
		Long: `Clone a drone into the drones directory, keeping its git metadata
in the host's private store, without adding it to the registry.

Cloning a registered drone that is not checked out reuses its URL and
any metadata left from an earlier checkout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, target := splitTarget(args)
			return cloneDrone(cmd.Context(), app, name, target, flags)
		},
	}

	addTargetFlags(cmd, &flags)
	return cmd
}

func cloneDrone(ctx context.Context, app *App, name drone.Name, target string, flags targetFlags) error {
	ws, err := app.workspace(ctx)
	if err != nil {
		return err
	}

	req, err := app.request(ctx, ws, name, target, flags)
	if err != nil {
		return err
	}

	if err := ws.manager.Clone(ctx, req); err != nil {
		return issue.NewErrorContext().
			WithOperation("clone").
			WithResource(string(req.Name)).
			WithSuggestion("Pass --path to clone into another directory").
			Wrap(err).
			BuildError()
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("cloned"), CmdStyle.Render(string(req.Name)))
	return nil
}
