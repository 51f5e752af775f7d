// SPDX-License-Identifier: MPL-2.0

// Package lifecycle registers, clones and removes drones. Each operation
// is a fixed sequence of states backed by git calls; the first failing
// call aborts the sequence and its error is returned as is. Nothing is
// rolled back, so a failed operation may leave the registry file or a
// worktree half-changed.
package lifecycle
