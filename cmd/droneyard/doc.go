// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for droneyard.
//
// Every command handler receives the App composition root and builds the
// registry, orchestrator and lifecycle manager it needs through
// App.workspace, so that tests can swap the git runner and the
// configuration source.
package cmd
