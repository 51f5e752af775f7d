// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/term"

	"github.com/droneyard/droneyard/internal/buildstep"
	"github.com/droneyard/droneyard/internal/issue"
	"github.com/droneyard/droneyard/internal/lifecycle"
	"github.com/droneyard/droneyard/internal/rebuild"
	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/internal/resolve"
	"github.com/droneyard/droneyard/internal/vcs"
	"github.com/droneyard/droneyard/pkg/drone"
)

// Exit codes beyond the generic failure.
const (
	exitFailure = 1
	exitUsage   = 2
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. Create it with newServiceError, which rejects a nil Err.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classify returns the catalog entry explaining err, or zero.
func classify(err error) issue.Id {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.IssueID != 0 {
		return svcErr.IssueID
	}
	if iss, ok := issue.IssueOf(err); ok {
		return iss.Id()
	}

	switch {
	case errors.Is(err, registry.ErrMissingSupportDirectory):
		return issue.HostNotFoundId
	case errors.Is(err, rebuild.ErrUsage):
		return issue.BatchOnlyId
	case errors.Is(err, lifecycle.ErrDirtyWorktree):
		return issue.DirtyWorktreeId
	case errors.Is(err, lifecycle.ErrAlreadyExists):
		return issue.TargetExistsId
	case errors.Is(err, drone.ErrInvalidName), errors.Is(err, resolve.ErrNoName):
		return issue.InvalidDroneNameId
	case errors.Is(err, resolve.ErrUnreachable), errors.Is(err, resolve.ErrRepositoryNotFound):
		return issue.RemoteUnreachableId
	case errors.Is(err, buildstep.ErrStepFailed):
		return issue.BuildStepFailedId
	case errors.Is(err, vcs.ErrCommandFailed):
		return issue.GitCommandFailedId
	case errors.Is(err, exec.ErrNotFound):
		return issue.GitNotFoundId
	default:
		return 0
	}
}

// exitCode maps err to the process exit code.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, rebuild.ErrUsage) {
		return exitUsage
	}
	return exitFailure
}

// renderError writes err for the user: a styled summary with suggestions
// (and the error chain in verbose mode), then the catalog entry that
// explains it.
func renderError(stderr io.Writer, err error, verbose bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		// The command already reported the failure.
		return
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	} else {
		fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	}

	id := classify(err)
	if id == 0 {
		return
	}
	if catalogEntry := issue.Get(id); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(glamourStyle(stderr))
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
			return
		}
		fmt.Fprint(stderr, rendered)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// glamourStyle picks the dark style for terminals and plain text otherwise.
func glamourStyle(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "dark"
	}
	return "notty"
}
