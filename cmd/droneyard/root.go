// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// configFileEnv names the config file when --config is not given. Build
// workers receive it from their parent.
const configFileEnv = "DRONEYARD_CONFIG_FILE"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the droneyard command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "droneyard",
		Short: "Assimilate and build Emacs packages as git submodules",
		Long: TitleStyle.Render("droneyard") + SubtitleStyle.Render(" - Emacs packages as git submodules") + `

droneyard keeps the Emacs packages of a configuration repository as git
submodules, called drones, and builds them: autoloads, byte-compilation
and Info manuals.

` + SubtitleStyle.Render("Examples:") + `
  droneyard assimilate magit https://github.com/magit/magit
  droneyard assimilate gh:minad/vertico
  droneyard build magit
  droneyard rebuild --quick
  droneyard list --assimilating`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.configPath == "" {
				app.configPath = os.Getenv(configFileEnv)
			}
			return app.setupLogging(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/droneyard/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&app.hostDir, "host", "C", "", "host repository (default is the working directory)")

	rootCmd.AddCommand(
		newListCommand(app),
		newBuildCommand(app),
		newRebuildCommand(app),
		newAssimilateCommand(app),
		newCloneCommand(app),
		newRemoveCommand(app),
		newConfigCommand(app),
		newInternalCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the command's exit code.
func Execute() {
	os.Exit(Run(context.Background(), NewApp(Dependencies{}), os.Args[1:]))
}

// Run executes the command tree with args and returns the exit code.
func Run(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(_ io.Writer, _ fang.Styles, err error) {
			renderError(app.stderr, err, app.verbose)
		}),
	)
	if err == nil {
		return 0
	}
	return exitCode(err)
}
