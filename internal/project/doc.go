// SPDX-License-Identifier: MPL-2.0

// Package project models the file hierarchy of the project being created.
//
// Tools add configuration trees (TOML or YAML), line-based files, text
// templates and directories to a Structure. Commit resolves every template
// against the variable environment and writes the result under the target
// folder. Paths are templates as well, e.g. "src/{PACKAGE_NAME}/__init__.py".
package project
