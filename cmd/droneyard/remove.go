// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droneyard/droneyard/internal/issue"
	"github.com/droneyard/droneyard/internal/lifecycle"
	"github.com/droneyard/droneyard/pkg/drone"
)

// newRemoveCommand creates the `droneyard remove` command.
func newRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <drone>",
		Short: "Remove a drone's worktree and registration",
		Long: `Remove a drone: its worktree and, for a registered drone, its
registry section. The drone's git metadata stays in the host's private
store so that assimilating it again does not download it again.

A drone with uncommitted changes is never removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeDrone(cmd.Context(), app, drone.Name(args[0]))
		},
	}
}

func removeDrone(ctx context.Context, app *App, name drone.Name) error {
	if err := name.Validate(); err != nil {
		return err
	}
	ws, err := app.workspace(ctx)
	if err != nil {
		return err
	}
	if _, err := ws.absorber(ctx); err != nil {
		return err
	}

	if err := ws.manager.Remove(ctx, name); err != nil {
		ctxErr := issue.NewErrorContext().
			WithOperation("remove").
			WithResource(string(name))
		switch {
		case errors.Is(err, os.ErrNotExist):
			ctxErr = ctxErr.
				WithSuggestion("Run 'droneyard list --cloned' to see the drones directory").
				WithIssue(issue.DroneNotFoundId)
		case errors.Is(err, lifecycle.ErrDirtyWorktree):
			ctxErr = ctxErr.WithSuggestion("Commit or stash the drone's changes first")
		}
		return ctxErr.Wrap(err).BuildError()
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("removed"), CmdStyle.Render(string(name)))
	return nil
}
