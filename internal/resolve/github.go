// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

// ErrRepositoryNotFound is returned when a GitHub shorthand names no
// repository.
var ErrRepositoryNotFound = errors.New("repository not found")

type (
	// GitHubResolver resolves "owner/repo" shorthands through the GitHub API.
	GitHubResolver struct {
		client *github.Client
	}

	// GitHubOption configures a GitHubResolver.
	GitHubOption func(*github.Client) error
)

// WithBaseURL points the resolver at another API endpoint, such as a test
// server or GitHub Enterprise.
func WithBaseURL(base string) GitHubOption {
	return func(c *github.Client) error {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("parse GitHub base URL: %w", err)
		}
		c.BaseURL = u
		return nil
	}
}

// NewGitHubResolver creates a resolver. An empty token makes anonymous
// requests.
func NewGitHubResolver(ctx context.Context, token string, opts ...GitHubOption) (*GitHubResolver, error) {
	httpClient := http.DefaultClient
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	client := github.NewClient(httpClient)
	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}
	return &GitHubResolver{client: client}, nil
}

// Resolve looks up slug ("owner/repo") and returns its clone URL with a
// derived drone name.
func (g *GitHubResolver) Resolve(ctx context.Context, slug string) (Candidate, error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return Candidate{}, fmt.Errorf("invalid GitHub shorthand %q: want owner/repo", slug)
	}

	r, resp, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return Candidate{}, fmt.Errorf("%w: %s", ErrRepositoryNotFound, slug)
		}
		return Candidate{}, fmt.Errorf("look up %s on GitHub: %w", slug, err)
	}

	return Candidate{
		Name:        DefaultName(r.GetName()),
		URL:         r.GetCloneURL(),
		Description: r.GetDescription(),
	}, nil
}
