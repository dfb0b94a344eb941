// SPDX-License-Identifier: MPL-2.0

// Package execute drives `incipyt init`. It selects tools, seeds the
// variable environment, renders every file before touching the disk, and then
// runs the tool hooks around the write. The CLI layer only translates flags
// into a Request and renders the Result.
package execute
