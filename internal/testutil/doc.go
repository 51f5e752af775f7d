// SPDX-License-Identifier: MPL-2.0

// Package testutil provides file fixture helpers that fail the test on
// error: MustWriteFile, MustReadFile, MustMkdirAll, and the tree helpers
// WriteTree and ListTree used to build and compare drone worktrees.
package testutil
