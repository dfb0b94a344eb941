// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers shared across packages: environment and
// working directory changes that undo themselves, a controllable clock, and a
// limit on concurrent container tests.
package testutil
