// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrUnparsableVersion is returned when `git version` output has no
// recognizable version number.
var ErrUnparsableVersion = errors.New("unparsable git version")

// Version returns the canonical semantic version of the git binary
// (e.g., "v2.39.2").
func (g *Gateway) Version(ctx context.Context) (string, error) {
	lines, err := g.RunOrFail(ctx, "query git version", "version")
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", ErrUnparsableVersion
	}
	return ParseVersion(lines[0])
}

// ParseVersion extracts a canonical semver from `git version` output such as
// "git version 2.39.2", "git version 2.30.1 (Apple Git-130)" or
// "git version 2.41.0.windows.1".
func ParseVersion(output string) (string, error) {
	fields := strings.Fields(output)
	for _, f := range fields {
		if f == "" || f[0] < '0' || f[0] > '9' {
			continue
		}
		parts := strings.Split(f, ".")
		if len(parts) > 3 {
			parts = parts[:3]
		}
		v := "v" + strings.Join(parts, ".")
		if semver.IsValid(v) {
			return semver.Canonical(v), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnparsableVersion, output)
}

// AtLeast reports whether version v is at or above min. Both must be
// canonical semvers as returned by ParseVersion.
func AtLeast(v, minimum string) bool {
	return semver.Compare(v, minimum) >= 0
}
