// SPDX-License-Identifier: MPL-2.0

// Package manual builds a drone's Info manuals from Texinfo sources.
package manual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/pkg/drone"
)

// DirFile is the master index every manual directory keeps.
const DirFile = "dir"

const (
	// DefaultMakeinfo is the Texinfo converter looked up on PATH.
	DefaultMakeinfo = "makeinfo"
	// DefaultInstallInfo is the index updater looked up on PATH.
	DefaultInstallInfo = "install-info"
)

type (
	// Converter runs the external Texinfo tools in dir. The returned text
	// is the tool's combined output.
	Converter interface {
		Makeinfo(ctx context.Context, dir, source, output string) (string, error)
		InstallInfo(ctx context.Context, dir, info, dirFile string) (string, error)
	}

	// ExecConverter runs makeinfo and install-info as child processes.
	ExecConverter struct {
		MakeinfoBinary    string
		InstallInfoBinary string
		// MakeinfoArgs are passed before the source file.
		MakeinfoArgs []string
	}

	// Failure records a tool failure for one document.
	Failure struct {
		File   string
		Output string
	}

	// Report lists what Build did.
	Report struct {
		Generated []string
		Indexed   []string
		Failures  []Failure
	}

	// Builder builds manuals of registered drones.
	Builder struct {
		Registry  *registry.Registry
		Converter Converter
	}
)

// Build regenerates the Info files of name and folds them into each
// directory's index. An Info file tracked by git is assumed current and
// left alone. Tool failures land in the report; the error is reserved for
// registry and git failures.
func (b *Builder) Build(ctx context.Context, sess *registry.Session, name drone.Name) (Report, error) {
	var report Report

	props, err := b.Registry.Props(ctx, sess, name)
	if err != nil {
		return report, err
	}
	wt := b.Registry.Worktree(props, name)
	exclude := props.List(drone.PropNoMakeinfo)

	dirs, err := b.Registry.ResolveInfoPath(ctx, sess, name, true)
	if err != nil {
		return report, err
	}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return report, fmt.Errorf("read manual directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !isTexinfo(e.Name()) {
				continue
			}
			src := filepath.Join(dir, e.Name())
			if drone.Excluded(wt, src, exclude) {
				continue
			}
			info := infoName(e.Name())

			current, err := b.tracked(ctx, wt, filepath.Join(dir, info))
			if err != nil {
				return report, err
			}
			if current {
				slog.Debug("keep tracked manual", "drone", name, "info", info)
				continue
			}

			if out, err := b.Converter.Makeinfo(ctx, dir, e.Name(), info); err != nil {
				report.Failures = append(report.Failures, Failure{File: src, Output: joinOutput(out, err)})
				slog.Warn("makeinfo failed", "drone", name, "file", src, "error", err)
				continue
			}
			report.Generated = append(report.Generated, filepath.Join(dir, info))
		}
	}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return report, fmt.Errorf("read manual directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".info") {
				continue
			}
			if out, err := b.Converter.InstallInfo(ctx, dir, e.Name(), DirFile); err != nil {
				report.Failures = append(report.Failures, Failure{File: filepath.Join(dir, e.Name()), Output: joinOutput(out, err)})
				slog.Warn("install-info failed", "drone", name, "file", e.Name(), "error", err)
				continue
			}
			report.Indexed = append(report.Indexed, filepath.Join(dir, e.Name()))
		}
	}
	return report, nil
}

// tracked reports whether info exists and is committed in the drone.
func (b *Builder) tracked(ctx context.Context, wt, info string) (bool, error) {
	if _, err := os.Stat(info); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	rel, err := filepath.Rel(wt, info)
	if err != nil {
		return false, err
	}
	return b.Registry.Gateway().At(wt).Succeeds(ctx, "ls-files", "--error-unmatch", "--", filepath.ToSlash(rel))
}

// Makeinfo implements Converter.
func (c ExecConverter) Makeinfo(ctx context.Context, dir, source, output string) (string, error) {
	bin := c.MakeinfoBinary
	if bin == "" {
		bin = DefaultMakeinfo
	}
	args := append([]string{"--no-split"}, c.MakeinfoArgs...)
	args = append(args, source, "-o", output)
	return run(ctx, dir, bin, args...)
}

// InstallInfo implements Converter.
func (c ExecConverter) InstallInfo(ctx context.Context, dir, info, dirFile string) (string, error) {
	bin := c.InstallInfoBinary
	if bin == "" {
		bin = DefaultInstallInfo
	}
	return run(ctx, dir, bin, info, dirFile)
}

func run(ctx context.Context, dir, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return string(out), nil
}

func isTexinfo(base string) bool {
	return strings.HasSuffix(base, ".texi") || strings.HasSuffix(base, ".texinfo")
}

func infoName(texi string) string {
	return strings.TrimSuffix(strings.TrimSuffix(texi, ".texinfo"), ".texi") + ".info"
}

func joinOutput(out string, err error) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return err.Error()
	}
	return out
}
