// SPDX-License-Identifier: MPL-2.0

// Package vcstest provides a scripted vcs.Runner for tests that must not
// depend on a git binary.
package vcstest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/droneyard/droneyard/internal/vcs"
)

type (
	// FakeRunner answers git invocations from scripted responses and records
	// every call. Responses match on an argument prefix; the longest matching
	// prefix wins and later registrations win ties. Unmatched calls succeed
	// with empty output.
	FakeRunner struct {
		mu        sync.Mutex
		responses []response
		calls     []vcs.Invocation
	}

	response struct {
		prefix []string
		handle func(inv vcs.Invocation) (vcs.Output, error)
	}
)

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// Gateway returns a gateway bound to dir that runs through f.
func (f *FakeRunner) Gateway(dir string) *vcs.Gateway {
	return vcs.New(dir, vcs.WithRunner(f))
}

// Stdout scripts a successful call printing stdout.
func (f *FakeRunner) Stdout(stdout string, prefix ...string) {
	f.Do(func(vcs.Invocation) (vcs.Output, error) {
		return vcs.Output{Stdout: []byte(stdout)}, nil
	}, prefix...)
}

// Exit scripts a call exiting with code and printing stderr.
func (f *FakeRunner) Exit(code int, stderr string, prefix ...string) {
	f.Do(func(vcs.Invocation) (vcs.Output, error) {
		return vcs.Output{Stderr: []byte(stderr), ExitCode: code}, nil
	}, prefix...)
}

// Do scripts a call with a handler, for responses with side effects.
func (f *FakeRunner) Do(handle func(inv vcs.Invocation) (vcs.Output, error), prefix ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response{prefix: slices.Clone(prefix), handle: handle})
}

// Run implements vcs.Runner.
func (f *FakeRunner) Run(_ context.Context, inv vcs.Invocation) (vcs.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, vcs.Invocation{Dir: inv.Dir, Binary: inv.Binary, Args: slices.Clone(inv.Args)})
	var best *response
	for i := range f.responses {
		r := &f.responses[i]
		if !hasPrefix(inv.Args, r.prefix) {
			continue
		}
		if best == nil || len(r.prefix) >= len(best.prefix) {
			best = r
		}
	}
	f.mu.Unlock()

	if best == nil {
		return vcs.Output{}, nil
	}
	return best.handle(inv)
}

// Calls returns the recorded invocations in order.
func (f *FakeRunner) Calls() []vcs.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Called reports whether any recorded call starts with prefix.
func (f *FakeRunner) Called(prefix ...string) bool {
	for _, c := range f.Calls() {
		if hasPrefix(c.Args, prefix) {
			return true
		}
	}
	return false
}

// CallLines renders the recorded calls as "git arg..." lines.
func (f *FakeRunner) CallLines() []string {
	calls := f.Calls()
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, strings.Join(append([]string{"git"}, c.Args...), " "))
	}
	return lines
}

func hasPrefix(args, prefix []string) bool {
	return len(args) >= len(prefix) && slices.Equal(args[:len(prefix)], prefix)
}
