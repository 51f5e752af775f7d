// SPDX-License-Identifier: MPL-2.0

// Package resolve turns what a user typed into the name and URL of a drone
// to register or clone. It never prompts.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/droneyard/droneyard/pkg/drone"
)

// GitHubPrefix marks a GitHub "owner/repo" shorthand.
const GitHubPrefix = "gh:"

// ErrNoName is returned when no drone name can be derived from a target.
var ErrNoName = errors.New("cannot derive a drone name")

type (
	// Candidate is a resolved (name, url) pair.
	Candidate struct {
		Name        drone.Name
		URL         string
		Description string
	}

	// Resolver completes a target into a Candidate. GitHub and Checker are
	// optional.
	Resolver struct {
		GitHub  *GitHubResolver
		Checker *RemoteChecker
	}
)

// Resolve completes target, a clone URL or a "gh:owner/repo" shorthand,
// into a Candidate. A non-empty name overrides the derived one. When a
// Checker is set the URL must answer before Resolve succeeds.
func (r *Resolver) Resolve(ctx context.Context, name drone.Name, target string) (Candidate, error) {
	var c Candidate
	if slug, ok := strings.CutPrefix(target, GitHubPrefix); ok {
		if r.GitHub == nil {
			return c, fmt.Errorf("resolve %s: GitHub lookups are not configured", target)
		}
		var err error
		if c, err = r.GitHub.Resolve(ctx, slug); err != nil {
			return c, err
		}
	} else {
		c = Candidate{Name: NameFromURL(target), URL: target}
	}

	if name != "" {
		c.Name = name
	}
	if c.Name == "" {
		return c, fmt.Errorf("%w from %q", ErrNoName, target)
	}
	if err := c.Name.Validate(); err != nil {
		return c, err
	}

	if r.Checker != nil {
		if err := r.Checker.Check(ctx, c.URL); err != nil {
			return c, err
		}
	}
	return c, nil
}

// NameFromURL derives a drone name from the last path element of a clone
// URL, scp-style address or local path.
func NameFromURL(raw string) drone.Name {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	} else if i := strings.LastIndex(raw, ":"); i >= 0 && !strings.Contains(raw[:i], "/") {
		p = raw[i+1:]
	}
	return DefaultName(path.Base(strings.TrimRight(p, "/")))
}

// DefaultName derives a drone name from a repository name by dropping a
// ".git" suffix, then an "emacs-" prefix and an ".el" suffix.
func DefaultName(repo string) drone.Name {
	name := strings.TrimSuffix(repo, ".git")
	name = strings.TrimPrefix(name, "emacs-")
	name = strings.TrimSuffix(name, ".el")
	if name == "." || name == "/" {
		return ""
	}
	return drone.Name(name)
}
