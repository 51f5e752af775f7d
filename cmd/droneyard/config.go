// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/droneyard/droneyard/internal/config"
)

// newConfigCommand creates the `droneyard config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage droneyard configuration",
		Long: `Manage droneyard configuration.

Configuration is stored in:
  - Linux: ~/.config/droneyard/config.cue
  - macOS: ~/Library/Application Support/droneyard/config.cue
  - Windows: %APPDATA%\droneyard\config.cue

Every key can be overridden by an environment variable named after it,
such as DRONEYARD_LAYOUT or DRONEYARD_BUILD_MAKEINFO.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), app.loadOptions())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FilePath(app.loadOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save the file.

Supported keys: layout, drones_dir, emacs_binary, compile.recursive,
build.makeinfo, build.shell_wrapper, ui.color_scheme, ui.verbose,
ui.log_level.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), app, args[0], args[1])
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.Config.Load(ctx, app.loadOptions())
	if err != nil {
		return err
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, err := config.FilePath(app.loadOptions())
	if err == nil && fileExists(path) {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	showValue(w, "", "host_dir", orDefault(cfg.HostDir, "(working directory)"))
	showValue(w, "", "drones_dir", orDefault(cfg.DronesDir, "(from layout)"))
	showValue(w, "", "layout", cfg.Layout.String())
	showValue(w, "", "git_binary", orDefault(cfg.GitBinary.String(), "(from PATH)"))
	showValue(w, "", "emacs_binary", orDefault(cfg.EmacsBinary.String(), "(from PATH)"))
	showValue(w, "", "makeinfo_binary", orDefault(cfg.MakeinfoBinary.String(), "(from PATH)"))
	showValue(w, "", "install_info_binary", orDefault(cfg.InstallInfoBinary.String(), "(from PATH)"))

	fmt.Fprintf(w, "\n%s:\n", CmdStyle.Render("compile"))
	showValue(w, "  ", "recursive", strconv.FormatBool(cfg.Compile.Recursive))
	showValue(w, "  ", "source_pattern", cfg.Compile.SourcePattern)

	fmt.Fprintf(w, "\n%s:\n", CmdStyle.Render("build"))
	showValue(w, "  ", "first", strings.Join(cfg.Build.First, ", "))
	showValue(w, "  ", "expensive", orDefault(strings.Join(cfg.Build.Expensive, ", "), "(none)"))
	showValue(w, "  ", "shell_wrapper", orDefault(cfg.Build.ShellWrapper, "(none)"))
	showValue(w, "  ", "makeinfo", strconv.FormatBool(cfg.Build.Makeinfo))
	showValue(w, "  ", "init_files", strings.Join(cfg.Build.InitFiles, ", "))

	fmt.Fprintf(w, "\n%s:\n", CmdStyle.Render("ui"))
	showValue(w, "  ", "color_scheme", cfg.UI.ColorScheme.String())
	showValue(w, "  ", "verbose", strconv.FormatBool(cfg.UI.Verbose))
	showValue(w, "  ", "log_level", cfg.UI.LogLevel.String())

	return nil
}

func showValue(w io.Writer, indent, key, value string) {
	fmt.Fprintf(w, "%s%s: %s\n", indent, CmdStyle.Render(key), SuccessStyle.Render(value))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func initConfig(app *App) error {
	path, err := config.FilePath(app.loadOptions())
	if err != nil {
		return err
	}

	created, err := config.CreateDefaultConfig(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func setConfigValue(ctx context.Context, app *App, key, value string) error {
	cfg, err := app.Config.Load(ctx, app.loadOptions())
	if err != nil {
		return err
	}

	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid value for %s: %q is not a boolean", key, value)
		}
		return b, nil
	}

	switch key {
	case "layout":
		cfg.Layout = config.Layout(value)
	case "drones_dir":
		cfg.DronesDir = value
	case "emacs_binary":
		cfg.EmacsBinary = config.BinaryFilePath(value)
	case "compile.recursive":
		if cfg.Compile.Recursive, err = parseBool(); err != nil {
			return err
		}
	case "build.makeinfo":
		if cfg.Build.Makeinfo, err = parseBool(); err != nil {
			return err
		}
	case "build.shell_wrapper":
		cfg.Build.ShellWrapper = value
	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)
	case "ui.verbose":
		if cfg.UI.Verbose, err = parseBool(); err != nil {
			return err
		}
	case "ui.log_level":
		cfg.UI.LogLevel = config.LogLevel(value)
	default:
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("unknown configuration key %q", key)}
	}

	if valid, errs := cfg.IsValid(); !valid {
		return errs[0]
	}

	path, err := config.FilePath(app.loadOptions())
	if err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s %s = %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(key), value)
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
