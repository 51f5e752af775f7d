// SPDX-License-Identifier: MPL-2.0

// Package vcs is the synchronous gateway to the external git binary.
//
// Every other droneyard component reaches git through a Gateway. Calls block
// until the child process exits and are never retried. RunOrFail turns a
// non-zero exit into a *CommandFailedError carrying the caller's label, the
// argument list and the captured output. TryGet covers the one place where a
// non-zero exit is an expected answer: reading a configuration key that was
// never set.
package vcs
