// SPDX-License-Identifier: MPL-2.0

// Package registry reads the drone registry: the host's .gitmodules file and
// the working trees below the drones directory.
//
// The Store parses the per-drone property table out of the registry file.
// The Registry answers the questions every build and lifecycle operation
// starts with: which drones exist, where their working tree and metadata
// live, and which directories make up their load and info paths. A Session
// scopes an optional property cache to one batch operation.
package registry
