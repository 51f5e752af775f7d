// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"

	"github.com/droneyard/droneyard/pkg/drone"
)

var (
	// ErrDirtyWorktree is returned when a drone with uncommitted changes
	// would be removed.
	ErrDirtyWorktree = errors.New("drone worktree has uncommitted changes")

	// ErrAlreadyExists is returned when a clone target is already populated.
	ErrAlreadyExists = errors.New("target path already exists")
)

type (
	// DirtyWorktreeError names the drone whose worktree is dirty.
	DirtyWorktreeError struct {
		Name     drone.Name
		Worktree string
		// Staged is true when the index differs from HEAD, false when only
		// the worktree does.
		Staged bool
	}

	// AlreadyExistsError names the populated clone target.
	AlreadyExistsError struct {
		Name drone.Name
		Path string
	}
)

// Error implements the error interface.
func (e *DirtyWorktreeError) Error() string {
	kind := "unstaged"
	if e.Staged {
		kind = "staged"
	}
	return fmt.Sprintf("drone %s has %s changes in %s", e.Name, kind, e.Worktree)
}

// Unwrap returns ErrDirtyWorktree for errors.Is() compatibility.
func (e *DirtyWorktreeError) Unwrap() error { return ErrDirtyWorktree }

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("cannot clone %s: %s already exists", e.Name, e.Path)
}

// Unwrap returns ErrAlreadyExists for errors.Is() compatibility.
func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }
