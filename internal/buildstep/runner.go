// SPDX-License-Identifier: MPL-2.0

// Package buildstep runs the build steps a drone declares instead of the
// default autoload/compile/manual sequence.
//
// A shell step is a command line handed to the host shell, optionally
// through a wrapper template. An expression step is evaluated by an
// embedded POSIX interpreter that provides common file utilities
// in-process.
package buildstep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/droneyard/droneyard/pkg/drone"
)

// DefaultShell runs shell steps.
const DefaultShell = "sh"

// ErrStepFailed is wrapped by every *StepError.
var ErrStepFailed = errors.New("build step failed")

type (
	// Runner executes build steps in a drone's worktree.
	Runner struct {
		// ShellWrapper is a template for shell steps. "%s" is replaced by
		// the raw command and "%S" by the shell-quoted command. Empty runs
		// the command as is.
		ShellWrapper string
		// Shell defaults to DefaultShell.
		Shell string
		// Env is appended to the process environment.
		Env []string
		// Stdout and Stderr receive the step output; nil discards it.
		Stdout io.Writer
		Stderr io.Writer
	}

	// StepError reports a failed build step.
	StepError struct {
		Step     drone.Step
		ExitCode int
		Err      error
	}
)

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s step %q: %v", e.Step.Kind, e.Step.Text, e.Err)
	}
	return fmt.Sprintf("%s step %q exited with status %d", e.Step.Kind, e.Step.Text, e.ExitCode)
}

// Unwrap returns ErrStepFailed and the underlying cause.
func (e *StepError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrStepFailed, e.Err}
	}
	return []error{ErrStepFailed}
}

// RunAll runs steps in order and stops at the first failure.
func (r *Runner) RunAll(ctx context.Context, dir string, steps []drone.Step) error {
	for _, step := range steps {
		if err := r.Run(ctx, dir, step); err != nil {
			return err
		}
	}
	return nil
}

// Run executes one step with dir as working directory.
func (r *Runner) Run(ctx context.Context, dir string, step drone.Step) error {
	slog.Debug("build step", "kind", step.Kind, "dir", dir, "text", step.Text)
	switch step.Kind {
	case drone.StepExpression:
		return r.runExpression(ctx, dir, step)
	case drone.StepShell:
		return r.runShell(ctx, dir, step)
	default:
		return &StepError{Step: step, Err: fmt.Errorf("unknown step kind %d", step.Kind)}
	}
}

func (r *Runner) runShell(ctx context.Context, dir string, step drone.Step) error {
	command, err := Wrap(r.ShellWrapper, step.Text)
	if err != nil {
		return &StepError{Step: step, Err: err}
	}
	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Stdout = orDiscard(r.Stdout)
	cmd.Stderr = orDiscard(r.Stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &StepError{Step: step, ExitCode: exitErr.ExitCode()}
		}
		return &StepError{Step: step, ExitCode: 1, Err: err}
	}
	return nil
}

func (r *Runner) runExpression(ctx context.Context, dir string, step drone.Step) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(step.Text), "build-step")
	if err != nil {
		return &StepError{Step: step, ExitCode: 2, Err: fmt.Errorf("parse: %w", err)}
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(append(os.Environ(), r.Env...)...)),
		interp.StdIO(nil, orDiscard(r.Stdout), orDiscard(r.Stderr)),
		interp.ExecHandlers(builtinHandler),
	)
	if err != nil {
		return &StepError{Step: step, ExitCode: 1, Err: err}
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return &StepError{Step: step, ExitCode: int(status)}
		}
		return &StepError{Step: step, ExitCode: 1, Err: err}
	}
	return nil
}

// Wrap substitutes command into template: "%s" takes the raw text, "%S"
// the shell-quoted text and "%%" a literal percent sign. An empty
// template returns command unchanged.
func Wrap(template, command string) (string, error) {
	if template == "" {
		return command, nil
	}

	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' || i == len(template)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch template[i] {
		case 's':
			sb.WriteString(command)
		case 'S':
			quoted, err := syntax.Quote(command, syntax.LangPOSIX)
			if err != nil {
				return "", fmt.Errorf("quote build step: %w", err)
			}
			sb.WriteString(quoted)
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(template[i])
		}
	}
	return sb.String(), nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
