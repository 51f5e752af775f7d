// SPDX-License-Identifier: MPL-2.0

// Package compile byte-compiles a drone's sources.
//
// The Pipeline walks a drone's search paths with an explicit worklist,
// decides per file whether it is eligible, skipped or compiled, and
// records the result in a Tally. A failed file never stops the walk.
package compile
