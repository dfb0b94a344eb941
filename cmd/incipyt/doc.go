// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands of incipyt.
//
// The root command scaffolds a project when given a folder; `init` does the
// same explicitly, `tools` lists what can be enabled and `config` manages the
// configuration file. Commands receive an App holding their dependencies.
package cmd
