// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/droneyard/droneyard/internal/config"
)

// setupLogging routes the slog records of all packages to a
// charmbracelet/log logger on stderr. The level comes from ui.log_level;
// --verbose or ui.verbose lowers it to debug. A configuration that fails
// to load leaves the default level; the command reports the error itself.
func (a *App) setupLogging(ctx context.Context) error {
	level := log.InfoLevel
	if cfg, err := a.Config.Load(ctx, a.loadOptions()); err == nil {
		if parsed, err := log.ParseLevel(string(cfg.UI.LogLevel)); err == nil {
			level = parsed
		}
		if cfg.UI.Verbose {
			level = log.DebugLevel
		}
	}
	if a.verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(a.stderr, log.Options{
		Level:           level,
		ReportTimestamp: false,
		Prefix:          config.AppName,
	})
	slog.SetDefault(slog.New(logger))
	return nil
}

// stdinIsBatch reports whether standard input is not a terminal, the mark
// of a batch context such as a script or CI job.
func stdinIsBatch() bool {
	return !term.IsTerminal(int(os.Stdin.Fd()))
}
