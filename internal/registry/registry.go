// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/droneyard/droneyard/internal/vcs"
	"github.com/droneyard/droneyard/pkg/drone"
)

const (
	// LayoutLib keeps drones under <top>/lib.
	LayoutLib Layout = "lib"
	// LayoutProfiles keeps drones under <top>/profiles.
	LayoutProfiles Layout = "profiles"
)

const (
	// FilterAssimilated selects registered drones whose worktree exists
	// under the drones directory.
	FilterAssimilated Filter = iota
	// FilterAssimilating selects registered drones without a worktree.
	FilterAssimilating
)

// ErrMissingSupportDirectory is returned when the host's top-level
// directory cannot be determined.
var ErrMissingSupportDirectory = errors.New("cannot determine host top-level directory")

type (
	// Layout names the default drones directory below the host.
	Layout string

	// Filter selects which registered drones ListAssimilated returns.
	Filter int

	// Options configures Open.
	Options struct {
		// HostDir is any directory inside the host repository. Empty means
		// the gateway's directory.
		HostDir string
		// DronesDir overrides the layout default. Relative paths are
		// resolved against the host top-level directory.
		DronesDir string
		// Layout picks the default drones directory.
		Layout Layout
	}

	// Entry is one drone returned by ListAssimilated.
	Entry struct {
		Name  drone.Name
		Path  string
		Props drone.Properties
	}

	// Registry resolves drones of one host repository.
	Registry struct {
		gw        *vcs.Gateway
		store     *Store
		top       string
		gitDir    string
		dronesDir string
	}
)

// Open locates the host repository around opts.HostDir and returns its
// Registry.
func Open(ctx context.Context, gw *vcs.Gateway, opts Options) (*Registry, error) {
	if opts.HostDir != "" {
		gw = gw.At(opts.HostDir)
	}

	top, _, err := gw.TryGet(ctx, "rev-parse", "--show-toplevel")
	if err != nil || top == "" {
		if err == nil {
			err = fmt.Errorf("%s is not inside a git work tree", gw.Dir())
		}
		return nil, fmt.Errorf("%w: %w", ErrMissingSupportDirectory, err)
	}
	top = filepath.Clean(top)

	gitDir, err := gw.RunOrFail(ctx, "locate host git dir", "rev-parse", "--git-dir")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingSupportDirectory, err)
	}
	if len(gitDir) == 0 {
		return nil, fmt.Errorf("%w: empty git dir", ErrMissingSupportDirectory)
	}
	gd := gitDir[0]
	if !filepath.IsAbs(gd) {
		base, absErr := filepath.Abs(gw.Dir())
		if absErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrMissingSupportDirectory, absErr)
		}
		gd = filepath.Join(base, gd)
	}

	dronesDir := opts.DronesDir
	switch {
	case dronesDir == "":
		layout := opts.Layout
		if layout == "" {
			layout = LayoutLib
		}
		dronesDir = filepath.Join(top, string(layout))
	case !filepath.IsAbs(dronesDir):
		dronesDir = filepath.Join(top, dronesDir)
	}

	host := gw.At(top)
	return &Registry{
		gw:        host,
		store:     NewStore(host, registryFile(top)),
		top:       top,
		gitDir:    filepath.Clean(gd),
		dronesDir: filepath.Clean(dronesDir),
	}, nil
}

// Top returns the host top-level directory.
func (r *Registry) Top() string { return r.top }

// GitDir returns the host's git directory.
func (r *Registry) GitDir() string { return r.gitDir }

// DronesDir returns the directory holding drone worktrees.
func (r *Registry) DronesDir() string { return r.dronesDir }

// Gateway returns a gateway bound to the host top-level directory.
func (r *Registry) Gateway() *vcs.Gateway { return r.gw }

// Store returns the registry file store.
func (r *Registry) Store() *Store { return r.store }

// WorktreePath returns the default worktree location of name.
func (r *Registry) WorktreePath(name drone.Name) string {
	return filepath.Join(r.dronesDir, string(name))
}

// MetadataPath returns the private metadata store of name.
func (r *Registry) MetadataPath(name drone.Name) string {
	return filepath.Join(r.gitDir, "modules", string(name))
}

// RelPath returns path relative to the host top-level directory, in
// slash form as git expects it.
func (r *Registry) RelPath(path string) (string, error) {
	rel, err := filepath.Rel(r.top, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Table returns the session cache or, without one, a fresh registry load.
func (r *Registry) Table(ctx context.Context, sess *Session) (Table, error) {
	if cache := sess.Cache(); cache != nil {
		return cache, nil
	}
	return r.store.LoadAll(ctx, false)
}

// Props returns the properties of name. An unregistered drone has none.
func (r *Registry) Props(ctx context.Context, sess *Session, name drone.Name) (drone.Properties, error) {
	table, err := r.Table(ctx, sess)
	if err != nil {
		return nil, err
	}
	if props, ok := table[name]; ok {
		return props, nil
	}
	return drone.Properties{}, nil
}

// IsRegistered reports whether name has a registry section.
func (r *Registry) IsRegistered(ctx context.Context, sess *Session, name drone.Name) (bool, error) {
	table, err := r.Table(ctx, sess)
	if err != nil {
		return false, err
	}
	_, ok := table[name]
	return ok, nil
}

// Worktree returns the worktree of name: the registered path when set,
// otherwise WorktreePath.
func (r *Registry) Worktree(props drone.Properties, name drone.Name) string {
	if p, ok := props.Get(drone.PropPath); ok && p != "" {
		return filepath.Join(r.top, filepath.FromSlash(p))
	}
	return r.WorktreePath(name)
}

// ListWorktreePaths returns the registered drones whose path lies under
// the drones directory, sorted.
func (r *Registry) ListWorktreePaths(ctx context.Context, sess *Session) ([]drone.Name, error) {
	table, err := r.Table(ctx, sess)
	if err != nil {
		return nil, err
	}
	var names []drone.Name
	for _, name := range table.Names() {
		p, ok := table[name].Get(drone.PropPath)
		if !ok {
			continue
		}
		if r.underDronesDir(filepath.Join(r.top, filepath.FromSlash(p))) {
			names = append(names, name)
		}
	}
	return names, nil
}

// ListAssimilated returns the registered drones selected by filter, sorted
// by name. Names containing a path separator are never returned.
func (r *Registry) ListAssimilated(ctx context.Context, sess *Session, filter Filter) ([]Entry, error) {
	table, err := r.Table(ctx, sess)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, name := range table.Names() {
		if strings.ContainsAny(string(name), `/\`) {
			continue
		}
		props := table[name]
		path := r.Worktree(props, name)
		present := isDir(path)

		switch filter {
		case FilterAssimilating:
			if present {
				continue
			}
		default:
			if !present || !r.underDronesDir(path) {
				continue
			}
		}
		entries = append(entries, Entry{Name: name, Path: path, Props: props})
	}
	return entries, nil
}

// ListClonedOnly returns the non-hidden directories of the drones
// directory, registered or not, sorted. A missing drones directory yields
// no names.
func (r *Registry) ListClonedOnly() ([]drone.Name, error) {
	dirents, err := os.ReadDir(r.dronesDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read drones directory: %w", err)
	}

	var names []drone.Name
	for _, d := range dirents {
		if strings.HasPrefix(d.Name(), ".") || !isDir(filepath.Join(r.dronesDir, d.Name())) {
			continue
		}
		names = append(names, drone.Name(d.Name()))
	}
	slices.Sort(names)
	return names, nil
}

// ResolveLoadPath returns the directories holding name's sources: every
// configured loadPath entry, or the first existing default directory.
func (r *Registry) ResolveLoadPath(ctx context.Context, sess *Session, name drone.Name) ([]string, error) {
	props, err := r.Props(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	wt := r.Worktree(props, name)

	if configured := props.List(drone.PropLoadPath); len(configured) > 0 {
		return joinAll(wt, configured), nil
	}
	for _, dir := range sess.loadDirs() {
		candidate := filepath.Join(wt, dir)
		if isDir(candidate) {
			return []string{candidate}, nil
		}
	}
	return []string{wt}, nil
}

// ResolveInfoPath returns the directories holding name's manuals. When
// infoPath is configured it wins; otherwise the worktree root and the
// default info directories are kept if they contain Texinfo sources
// (forSources) or built Info files.
func (r *Registry) ResolveInfoPath(ctx context.Context, sess *Session, name drone.Name, forSources bool) ([]string, error) {
	props, err := r.Props(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	wt := r.Worktree(props, name)

	if configured := props.List(drone.PropInfoPath); len(configured) > 0 {
		return joinAll(wt, configured), nil
	}

	candidates := append([]string{wt}, joinAll(wt, sess.infoDirs())...)
	var dirs []string
	for _, dir := range candidates {
		if hasManual(dir, forSources) {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

func (r *Registry) underDronesDir(path string) bool {
	rel, err := filepath.Rel(r.dronesDir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasManual(dir string, forSources bool) bool {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		n := d.Name()
		if forSources {
			if strings.HasSuffix(n, ".texi") || strings.HasSuffix(n, ".texinfo") {
				return true
			}
			continue
		}
		if n == "dir" || strings.HasSuffix(n, ".info") {
			return true
		}
	}
	return false
}

func joinAll(base string, rels []string) []string {
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		out = append(out, filepath.Join(base, filepath.FromSlash(rel)))
	}
	return out
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
