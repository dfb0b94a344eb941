// SPDX-License-Identifier: MPL-2.0

// Command incipyt bootstraps Python projects.
package main

import cmd "github.com/incipyt/incipyt/cmd/incipyt"

func main() {
	cmd.Execute()
}
