// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/droneyard/droneyard/internal/buildstep"
	"github.com/droneyard/droneyard/internal/issue"
	"github.com/droneyard/droneyard/internal/lifecycle"
	"github.com/droneyard/droneyard/internal/rebuild"
	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/internal/resolve"
	"github.com/droneyard/droneyard/internal/vcs"
	"github.com/droneyard/droneyard/pkg/drone"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("newServiceError(nil) did not panic")
		}
	}()
	_ = newServiceError(nil, 0, "")
}

func TestServiceError_Unwrap(t *testing.T) {
	t.Parallel()

	err := newServiceError(fmt.Errorf("magit: %w", errNoURL), issue.DroneNotFoundId, "")
	if !errors.Is(err, errNoURL) {
		t.Error("errors.Is(err, errNoURL) = false")
	}
	if err.Error() != "magit: "+errNoURL.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"plain", errors.New("boom"), 0},
		{"service error", newServiceError(errors.New("x"), issue.EmacsNotFoundId, ""), issue.EmacsNotFoundId},
		{
			"actionable with issue",
			issue.NewErrorContext().WithOperation("remove").WithIssue(issue.DroneNotFoundId).Wrap(os.ErrNotExist).BuildError(),
			issue.DroneNotFoundId,
		},
		{"no host", fmt.Errorf("%w: not a repo", registry.ErrMissingSupportDirectory), issue.HostNotFoundId},
		{"batch only", rebuild.ErrUsage, issue.BatchOnlyId},
		{"dirty", fmt.Errorf("remove magit: %w", lifecycle.ErrDirtyWorktree), issue.DirtyWorktreeId},
		{"exists", lifecycle.ErrAlreadyExists, issue.TargetExistsId},
		{"invalid name", drone.Name("a/b").Validate(), issue.InvalidDroneNameId},
		{"no name", resolve.ErrNoName, issue.InvalidDroneNameId},
		{"unreachable", resolve.ErrUnreachable, issue.RemoteUnreachableId},
		{"step failed", fmt.Errorf("make: %w", buildstep.ErrStepFailed), issue.BuildStepFailedId},
		{"git failed", fmt.Errorf("list registry: %w", vcs.ErrCommandFailed), issue.GitCommandFailedId},
		{"git missing", &exec.Error{Name: "git", Err: exec.ErrNotFound}, issue.GitNotFoundId},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), exitFailure},
		{"explicit", &ExitError{Code: 3}, 3},
		{"usage", fmt.Errorf("rebuild: %w", rebuild.ErrUsage), exitUsage},
		{"wrapped exit", fmt.Errorf("outer: %w", &ExitError{Code: exitUsage, Err: errors.New("flags")}), exitUsage},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	t.Run("silent exit", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		renderError(&buf, &ExitError{Code: 1}, false)
		if buf.Len() != 0 {
			t.Errorf("renderError wrote %q", buf.String())
		}
	})

	t.Run("actionable", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		err := issue.NewErrorContext().
			WithOperation("remove").
			WithResource("ghost").
			WithSuggestion("Run 'droneyard list --cloned'").
			Wrap(os.ErrNotExist).
			BuildError()
		renderError(&buf, err, true)

		out := buf.String()
		for _, want := range []string{"failed to remove ghost", "droneyard list --cloned", "Error chain:"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("styled message", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		renderError(&buf, newServiceError(errors.New("raw"), 0, "styled\n"), false)
		if got := buf.String(); got != "styled\n" {
			t.Errorf("output = %q, want the styled message", got)
		}
	})
}
