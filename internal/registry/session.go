// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"slices"

	"github.com/droneyard/droneyard/pkg/drone"
)

// DefaultLoadDirs are the worktree subdirectories tried, in order, when a
// drone declares no loadPath. The worktree root is the final fallback.
var DefaultLoadDirs = []string{"elisp", "lisp"}

// DefaultInfoDirs are the worktree subdirectories searched for manuals
// when a drone declares no infoPath, after the worktree root.
var DefaultInfoDirs = []string{"doc", "docs"}

// Session is the per-batch context handed to every registry read. It
// carries the optional property cache and the search-path defaults. A
// Session must not be shared between concurrent batches.
type Session struct {
	cache Table

	// Recursive is the default for drones that do not set
	// recursiveByteCompile.
	Recursive bool
	// LoadDirs are the candidate load directories, see DefaultLoadDirs.
	LoadDirs []string
	// InfoDirs are the candidate manual directories, see DefaultInfoDirs.
	InfoDirs []string
}

// NewSession returns a Session without a cache and with default search
// directories.
func NewSession() *Session {
	return &Session{
		LoadDirs: slices.Clone(DefaultLoadDirs),
		InfoDirs: slices.Clone(DefaultInfoDirs),
	}
}

// Prime replaces the cache with a full load of the registry. A failed load
// leaves the previous cache untouched.
func (s *Session) Prime(ctx context.Context, store *Store) error {
	table, err := store.LoadAll(ctx, false)
	if err != nil {
		return err
	}
	s.cache = table
	return nil
}

// Cache returns the active cache, or nil when the session is not primed.
func (s *Session) Cache() Table {
	if s == nil {
		return nil
	}
	return s.cache
}

// Drop discards the cache. Reads go to git again afterwards.
func (s *Session) Drop() { s.cache = nil }

// RecursiveFor reports whether compilation for props should descend into
// subdirectories.
func (s *Session) RecursiveFor(props drone.Properties) bool {
	if _, ok := props[drone.PropRecursiveByteCompile]; ok {
		return props.Bool(drone.PropRecursiveByteCompile)
	}
	return s != nil && s.Recursive
}

func (s *Session) loadDirs() []string {
	if s == nil || s.LoadDirs == nil {
		return DefaultLoadDirs
	}
	return s.LoadDirs
}

func (s *Session) infoDirs() []string {
	if s == nil || s.InfoDirs == nil {
		return DefaultInfoDirs
	}
	return s.InfoDirs
}
