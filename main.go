// SPDX-License-Identifier: MPL-2.0

// Command droneyard assimilates Emacs packages into a configuration
// repository as git submodules and builds them.
package main

import cmd "github.com/droneyard/droneyard/cmd/droneyard"

func main() {
	cmd.Execute()
}
