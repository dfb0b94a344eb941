// SPDX-License-Identifier: MPL-2.0

// Package runner executes the external commands tools contribute, such as
// "git init" or "python3 -m venv .venv".
//
// Commands are quoted into a single shell line and run by the mvdan.cc/sh
// interpreter, so behavior does not depend on the host shell. DryRunner
// records commands without running them.
package runner
