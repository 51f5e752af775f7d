// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCommandFailed is the sentinel error wrapped by CommandFailedError.
var ErrCommandFailed = errors.New("git command failed")

// CommandFailedError is returned when git exits with a non-zero status
// where success was required.
type CommandFailedError struct {
	// Label names what the caller was doing (e.g., "add submodule").
	Label string
	// Args are the git arguments, without the binary.
	Args []string
	// Output is the captured stdout and stderr of the failed call.
	Output string
	// ExitCode is the exit status of git.
	ExitCode int
}

// Error implements the error interface.
func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("%s: git %s exited with status %d", e.Label, strings.Join(e.Args, " "), e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Unwrap returns ErrCommandFailed for errors.Is() compatibility.
func (e *CommandFailedError) Unwrap() error { return ErrCommandFailed }
