// SPDX-License-Identifier: MPL-2.0

// Package rebuild drives drone builds.
//
// Build builds a single drone: its declared build steps, or else its
// autoloads, byte-compilation and (optionally) manuals, followed by the
// activation hook. RebuildAll rebuilds every enabled, present drone in a
// fixed order and then the host's own init files; it is a batch-only
// operation. SpawnBuild runs a single drone build in a child process and
// streams its output.
package rebuild
