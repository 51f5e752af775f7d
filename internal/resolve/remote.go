// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// ErrUnreachable is returned when a drone URL does not answer as a git
// remote.
var ErrUnreachable = errors.New("remote is not reachable")

// tokenVars are checked in order for HTTPS credentials.
var tokenVars = []string{"DRONEYARD_GIT_TOKEN", "GITHUB_TOKEN", "GITLAB_TOKEN"}

// RemoteChecker verifies that a URL is a reachable git remote by listing
// its references, without cloning.
type RemoteChecker struct {
	auth transport.AuthMethod
}

// NewRemoteChecker creates a RemoteChecker using HTTPS token credentials
// from the environment when present.
func NewRemoteChecker() *RemoteChecker {
	c := &RemoteChecker{}
	for _, v := range tokenVars {
		if token := os.Getenv(v); token != "" {
			c.auth = &http.BasicAuth{Username: "x-access-token", Password: token}
			break
		}
	}
	return c
}

// Check lists the references of rawURL. An empty repository counts as
// reachable.
func (c *RemoteChecker) Check(ctx context.Context, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty url", ErrUnreachable)
	}
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{rawURL},
	})

	_, err := remote.ListContext(ctx, &git.ListOptions{Auth: c.auth})
	if err == nil || errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUnreachable, rawURL, err)
}
