// SPDX-License-Identifier: MPL-2.0

package autoload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/droneyard/droneyard/pkg/drone"
)

type (
	// Request describes one drone's autoload generation.
	Request struct {
		Drone drone.Name
		// Worktree is the drone's working tree; Exclude patterns are
		// relative to it.
		Worktree string
		// SearchPaths are the drone's load directories. The autoloads file
		// is written to the first one.
		SearchPaths []string
		// Exclude holds the drone's noByteCompile entries, as doublestar
		// patterns.
		Exclude []string
	}

	// Invalidator is told about a file whose content changed on disk, so
	// that any view of it held by the host environment can be refreshed.
	Invalidator interface {
		Invalidate(path string) error
	}

	// InvalidatorFunc adapts a function to Invalidator.
	InvalidatorFunc func(path string) error

	// Generator writes autoloads files.
	Generator struct {
		// Invalidator is optional.
		Invalidator Invalidator
	}
)

// Invalidate calls f(path).
func (f InvalidatorFunc) Invalidate(path string) error { return f(path) }

// Path returns the autoloads file of name for searchPaths.
func Path(name drone.Name, searchPaths []string) string {
	return filepath.Join(searchPaths[0], string(name)+drone.AutoloadsSuffix)
}

// Generate regenerates the autoloads file of req.Drone and returns its
// path. A prior file is removed first. When a source file fails to scan
// the error is returned and no file is left in place.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.SearchPaths) == 0 {
		return "", fmt.Errorf("generate autoloads for %s: no search paths", req.Drone)
	}
	out := Path(req.Drone, req.SearchPaths)

	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove old autoloads: %w", err)
	}

	files, err := Eligible(req)
	if err != nil {
		return "", err
	}

	outDir := filepath.Dir(out)
	var sb strings.Builder
	writeHeader(&sb, filepath.Base(out))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		forms, err := Scan(file, libraryName(outDir, file))
		if err != nil {
			return "", fmt.Errorf("scan %s: %w", file, err)
		}
		if len(forms) == 0 {
			continue
		}
		rel, _ := filepath.Rel(outDir, file)
		fmt.Fprintf(&sb, "\f\n;;; Generated autoloads from %s\n\n", filepath.ToSlash(rel))
		for _, form := range forms {
			sb.WriteString(form)
			sb.WriteString("\n\n")
		}
	}
	writeFooter(&sb, filepath.Base(out), string(req.Drone)+"-autoloads")

	if err := writeAtomic(out, sb.String()); err != nil {
		return "", err
	}
	slog.Debug("wrote autoloads", "drone", req.Drone, "file", out, "sources", len(files))

	if g != nil && g.Invalidator != nil {
		if err := g.Invalidator.Invalidate(out); err != nil {
			slog.Warn("invalidate autoloads view", "file", out, "error", err)
		}
	}
	return out, nil
}

// Eligible lists the source files scanned for req: every *.el directly in
// a search path, minus generated files, directory-local settings, the
// package descriptor, tests and excluded files. Each search path is
// listed in name order; paths are not revisited.
func Eligible(req Request) ([]string, error) {
	var files []string
	seen := map[string]bool{}
	for _, dir := range req.SearchPaths {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read search path: %w", err)
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if e.IsDir() || seen[path] || !isSource(req.Drone, e.Name()) {
				continue
			}
			if drone.Excluded(req.Worktree, path, req.Exclude) {
				continue
			}
			seen[path] = true
			files = append(files, path)
		}
	}
	return files, nil
}

func isSource(name drone.Name, base string) bool {
	if !strings.HasSuffix(base, drone.SourceExt) || drone.IsGenerated(base) || drone.IsDirLocals(base) {
		return false
	}
	if base == string(name)+"-pkg.el" || strings.HasPrefix(base, string(name)+"-test") {
		return false
	}
	return !strings.HasPrefix(base, ".#")
}

func libraryName(outDir, file string) string {
	rel, err := filepath.Rel(outDir, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), ".el")
}

func writeHeader(sb *strings.Builder, base string) {
	fmt.Fprintf(sb, ";;; %s --- automatically extracted autoloads  -*- lexical-binding: t -*-\n", base)
	sb.WriteString(";;\n;;; Code:\n\n")
	sb.WriteString("(add-to-list 'load-path (directory-file-name\n")
	sb.WriteString("                         (or (file-name-directory #$) (car load-path))))\n\n")
}

func writeFooter(sb *strings.Builder, base, feature string) {
	sb.WriteString("\f\n;;; End of scraped data\n\n")
	fmt.Fprintf(sb, "(provide '%s)\n\n", feature)
	for _, line := range []string{
		"Local Variables:",
		"version-control: never",
		"no-byte-compile: t",
		"no-update-autoloads: t",
		"coding: utf-8-emacs-unix",
		"End:",
	} {
		fmt.Fprintf(sb, ";; %s\n", line)
	}
	fmt.Fprintf(sb, "\n;;; %s ends here\n", base)
}

// writeAtomic writes content next to path and renames it into place.
func writeAtomic(path, content string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".autoloads-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing autoloads: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing autoloads: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod autoloads: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("installing autoloads: %w", err)
	}
	return nil
}

