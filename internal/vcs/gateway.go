// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// DefaultBinary is the git executable looked up on PATH.
const DefaultBinary = "git"

// exitAbsent is the status git config uses for "key not set".
const exitAbsent = 1

type (
	// Invocation describes one child process to run.
	Invocation struct {
		Dir    string
		Binary string
		Args   []string
	}

	// Output is what a Runner captured from a finished child process.
	Output struct {
		Stdout   []byte
		Stderr   []byte
		ExitCode int
	}

	// Runner executes an Invocation. A non-zero exit is reported through
	// Output.ExitCode; the error is reserved for failing to run at all.
	Runner interface {
		Run(ctx context.Context, inv Invocation) (Output, error)
	}

	// Result is the outcome of Gateway.Run.
	Result struct {
		// Lines is stdout split into lines, without the trailing empty line.
		Lines []string
		// Stderr is the raw standard error text.
		Stderr string
		// ExitCode is the exit status of git.
		ExitCode int
	}

	// Gateway runs git in a fixed directory.
	Gateway struct {
		dir    string
		binary string
		runner Runner
	}

	// Option configures a Gateway.
	Option func(*Gateway)

	execRunner struct{}
)

// WithRunner replaces the process runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(g *Gateway) { g.runner = r }
}

// WithBinary sets the git executable.
func WithBinary(bin string) Option {
	return func(g *Gateway) {
		if bin != "" {
			g.binary = bin
		}
	}
}

// New creates a Gateway that runs git in dir.
func New(dir string, opts ...Option) *Gateway {
	g := &Gateway{
		dir:    dir,
		binary: DefaultBinary,
		runner: execRunner{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dir returns the directory git runs in.
func (g *Gateway) Dir() string { return g.dir }

// At returns a Gateway sharing g's binary and runner but running in dir.
func (g *Gateway) At(dir string) *Gateway {
	return &Gateway{dir: dir, binary: g.binary, runner: g.runner}
}

// Run executes git with args and returns its output and exit code.
func (g *Gateway) Run(ctx context.Context, args ...string) (Result, error) {
	slog.Debug("git", "dir", g.dir, "args", args)

	out, err := g.runner.Run(ctx, Invocation{Dir: g.dir, Binary: g.binary, Args: args})
	if err != nil {
		return Result{}, fmt.Errorf("run git %s: %w", strings.Join(args, " "), err)
	}

	return Result{
		Lines:    splitLines(out.Stdout),
		Stderr:   string(out.Stderr),
		ExitCode: out.ExitCode,
	}, nil
}

// RunOrFail executes git and fails with a *CommandFailedError on a
// non-zero exit. label describes the caller's intent for the error message.
func (g *Gateway) RunOrFail(ctx context.Context, label string, args ...string) ([]string, error) {
	res, err := g.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, failed(label, args, res)
	}
	return res.Lines, nil
}

// TryGet reads a single value. Exit status 1 means the value is absent and
// yields ok=false; other non-zero exits fail like RunOrFail.
func (g *Gateway) TryGet(ctx context.Context, args ...string) (value string, ok bool, err error) {
	lines, ok, err := g.TryGetAll(ctx, args...)
	if err != nil || !ok || len(lines) == 0 {
		return "", false, err
	}
	return lines[len(lines)-1], true, nil
}

// TryGetAll is TryGet for multi-line answers.
func (g *Gateway) TryGetAll(ctx context.Context, args ...string) ([]string, bool, error) {
	res, err := g.Run(ctx, args...)
	if err != nil {
		return nil, false, err
	}
	switch res.ExitCode {
	case 0:
		return res.Lines, true, nil
	case exitAbsent:
		return nil, false, nil
	default:
		return nil, false, failed("read value", args, res)
	}
}

// Succeeds runs git and reports whether it exited with status 0. It is for
// predicates such as "diff --quiet" where a non-zero exit is the answer.
func (g *Gateway) Succeeds(ctx context.Context, args ...string) (bool, error) {
	res, err := g.Run(ctx, args...)
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

func failed(label string, args []string, res Result) *CommandFailedError {
	output := strings.Join(res.Lines, "\n")
	if res.Stderr != "" {
		if output != "" {
			output += "\n"
		}
		output += strings.TrimRight(res.Stderr, "\n")
	}
	return &CommandFailedError{
		Label:    label,
		Args:     append([]string(nil), args...),
		Output:   output,
		ExitCode: res.ExitCode,
	}
}

func splitLines(b []byte) []string {
	s := strings.TrimRight(string(b), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Run executes the invocation with os/exec.
func (execRunner) Run(ctx context.Context, inv Invocation) (Output, error) {
	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...)
	cmd.Dir = inv.Dir
	// Never let git block on a credential or editor prompt.
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_EDITOR=true")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, err
	}
	return out, nil
}
