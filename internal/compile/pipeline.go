// SPDX-License-Identifier: MPL-2.0

package compile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/droneyard/droneyard/pkg/drone"
)

// DefaultSourcePattern selects the files a Pipeline compiles.
const DefaultSourcePattern = "*.el"

// NoSearchMarker disables recursion into the directory that holds it.
const NoSearchMarker = ".nosearch"

type (
	// Request describes one drone's compile run.
	Request struct {
		Drone drone.Name
		// Worktree bounds the run: files resolving outside it are ignored.
		Worktree string
		// SearchPaths are the roots of the walk.
		SearchPaths []string
		// LoadPath is passed to the compiler in addition to SearchPaths.
		LoadPath []string
		// Exclude holds the drone's noByteCompile patterns.
		Exclude []string
		// Recursive enables descending into subdirectories.
		Recursive bool
	}

	// Pipeline compiles the eligible files of a drone.
	Pipeline struct {
		Compiler Compiler
		// Recursive is the default for requests that do not ask for it.
		Recursive bool
		// SourcePattern defaults to DefaultSourcePattern.
		SourcePattern string
	}

	// worklist is the FIFO of directories still to visit.
	worklist struct {
		queue   []string
		visited map[string]bool
	}
)

// Compile walks req.SearchPaths and compiles every eligible file once.
// Compile failures are recorded in the Tally and logged; they never stop
// the walk. Cancelling ctx stops before the next file.
func (p *Pipeline) Compile(ctx context.Context, req Request) Tally {
	var tally Tally
	wl := &worklist{visited: map[string]bool{}}
	for _, root := range req.SearchPaths {
		wl.push(root)
	}

	root := realPath(req.Worktree)
	recursive := req.Recursive || p.Recursive
	loadPath := append(append([]string(nil), req.SearchPaths...), req.LoadPath...)
	seen := map[string]bool{}

	for dir, ok := wl.pop(); ok; dir, ok = wl.pop() {
		if ctx.Err() != nil {
			break
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			slog.Debug("skip unreadable directory", "dir", dir, "error", err)
			continue
		}

		counted := false
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())

			if e.IsDir() || (e.Type()&os.ModeSymlink != 0 && isDir(path)) {
				if recursive && descends(path, e) {
					wl.push(path)
				}
				continue
			}
			if !p.eligible(path, e.Name(), root) || seen[path] {
				continue
			}
			seen[path] = true
			counted = true

			if drone.IsTestOrDescriptor(e.Name()) || drone.Excluded(req.Worktree, path, req.Exclude) {
				tally.Skipped++
				continue
			}
			if ctx.Err() != nil {
				tally.Failed++
				tally.Failures = append(tally.Failures, Failure{File: path, Detail: ctx.Err().Error()})
				continue
			}
			p.record(&tally, path, p.Compiler.Compile(ctx, path, loadPath))
		}
		if counted {
			tally.Dirs++
		}
	}

	slog.Debug("compiled drone", "drone", req.Drone, "tally", tally.String())
	return tally
}

// CompileFiles compiles an explicit file list, skipping missing files.
// It is used for the host's own init files.
func (p *Pipeline) CompileFiles(ctx context.Context, files, loadPath []string) Tally {
	var tally Tally
	dirs := map[string]bool{}
	for _, file := range files {
		if fi, err := os.Stat(file); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		dirs[filepath.Dir(file)] = true
		p.record(&tally, file, p.Compiler.Compile(ctx, file, loadPath))
	}
	tally.Dirs = len(dirs)
	return tally
}

func (p *Pipeline) record(tally *Tally, file string, out Outcome) {
	switch out.Status {
	case StatusCompiled:
		tally.Files++
	case StatusDeclined:
		tally.Skipped++
	default:
		tally.Failed++
		tally.Failures = append(tally.Failures, Failure{File: file, Detail: out.Output})
		slog.Warn("compile failed", "file", file, "output", out.Output)
	}
}

// eligible reports whether path is a regular, readable source file of the
// drone that is neither generated nor directory-local settings.
func (p *Pipeline) eligible(path, base, root string) bool {
	pattern := p.SourcePattern
	if pattern == "" {
		pattern = DefaultSourcePattern
	}
	if ok, _ := doublestar.Match(pattern, base); !ok {
		return false
	}
	if drone.IsGenerated(base) || drone.IsDirLocals(base) {
		return false
	}

	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()

	return within(root, realPath(path))
}

// descends reports whether the walk may enter the subdirectory at path.
func descends(path string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink != 0 {
		return false
	}
	name := e.Name()
	if strings.HasPrefix(name, ".") || name == "RCS" || name == "CVS" {
		return false
	}
	_, err := os.Stat(filepath.Join(path, NoSearchMarker))
	return err != nil
}

func (w *worklist) push(dir string) {
	key := realPath(dir)
	if w.visited[key] {
		return
	}
	w.visited[key] = true
	w.queue = append(w.queue, dir)
}

func (w *worklist) pop() (string, bool) {
	if len(w.queue) == 0 {
		return "", false
	}
	dir := w.queue[0]
	w.queue = w.queue[1:]
	return dir, true
}

func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
