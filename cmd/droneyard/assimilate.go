// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/droneyard/droneyard/internal/issue"
	"github.com/droneyard/droneyard/internal/lifecycle"
	"github.com/droneyard/droneyard/internal/resolve"
	"github.com/droneyard/droneyard/pkg/drone"
)

// errNoURL is returned when a drone is neither given a URL nor registered.
var errNoURL = errors.New("no url given and the drone is not registered")

// targetFlags are shared by assimilate and clone.
type targetFlags struct {
	path     string
	noVerify bool
}

// newAssimilateCommand creates the `droneyard assimilate` command.
func newAssimilateCommand(app *App) *cobra.Command {
	var (
		flags   targetFlags
		partial bool
	)

	cmd := &cobra.Command{
		Use:   "assimilate <name> [url]",
		Short: "Add a drone as a submodule and build it",
		Long: `Add a drone as a git submodule of the host, stage the registry file
and build the drone.

The drone is given by name and URL, by URL alone (the name is derived
from the repository name), or as gh:owner/repo. A registered drone whose
assimilation was interrupted resumes from its name alone.`,
		Example: `  droneyard assimilate magit https://github.com/magit/magit
  droneyard assimilate https://github.com/minad/vertico.git
  droneyard assimilate gh:oantolin/orderless`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, target := splitTarget(args)
			return assimilate(cmd.Context(), app, name, target, flags, partial)
		},
	}

	cmd.Flags().BoolVar(&partial, "partial", false, "register without building")
	addTargetFlags(cmd, &flags)
	return cmd
}

func addTargetFlags(cmd *cobra.Command, flags *targetFlags) {
	cmd.Flags().StringVar(&flags.path, "path", "", "worktree location (default is <drones-dir>/<name>)")
	cmd.Flags().BoolVar(&flags.noVerify, "no-verify", false, "skip the remote reachability check")
}

// splitTarget reads "<name> [url]" or "<url>" arguments.
func splitTarget(args []string) (drone.Name, string) {
	if len(args) == 2 {
		return drone.Name(args[0]), args[1]
	}
	if strings.HasPrefix(args[0], resolve.GitHubPrefix) || strings.ContainsAny(args[0], ":/") {
		return "", args[0]
	}
	return drone.Name(args[0]), ""
}

func assimilate(ctx context.Context, app *App, name drone.Name, target string, flags targetFlags, partial bool) error {
	ws, err := app.workspace(ctx)
	if err != nil {
		return err
	}
	if _, err := ws.absorber(ctx); err != nil {
		return err
	}

	req, err := app.request(ctx, ws, name, target, flags)
	if err != nil {
		return err
	}
	req.Partial = partial

	if err := ws.manager.Register(ctx, req); err != nil {
		return issue.NewErrorContext().
			WithOperation("assimilate").
			WithResource(string(req.Name)).
			WithSuggestion(fmt.Sprintf("If the drone is registered but not checked out, run 'droneyard clone %[1]s' and then 'droneyard assimilate %[1]s'", req.Name)).
			Wrap(err).
			BuildError()
	}

	verb := "assimilated"
	if partial {
		verb = "registered"
	}
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render(verb), CmdStyle.Render(string(req.Name)))
	return nil
}

// request completes a lifecycle request from what the user typed. Without
// a target the URL of a registered drone is reused.
func (a *App) request(ctx context.Context, ws *workspace, name drone.Name, target string, flags targetFlags) (lifecycle.Request, error) {
	req := lifecycle.Request{Name: name, Path: flags.path}
	if target == "" {
		if err := name.Validate(); err != nil {
			return req, err
		}
		props, err := ws.registry.Props(ctx, nil, name)
		if err != nil {
			return req, err
		}
		url, ok := props.Get(drone.PropURL)
		if !ok {
			return req, newServiceError(fmt.Errorf("%s: %w", name, errNoURL), issue.DroneNotFoundId, "")
		}
		req.URL = url
		return req, nil
	}

	r, err := a.resolver(ctx, !flags.noVerify)
	if err != nil {
		return req, err
	}
	c, err := r.Resolve(ctx, name, target)
	if err != nil {
		return req, err
	}
	req.Name, req.URL = c.Name, c.URL
	return req, nil
}
