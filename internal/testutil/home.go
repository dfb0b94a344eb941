// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

// SetHomeDir points the platform home variable (USERPROFILE on Windows, HOME
// elsewhere) at dir until the test ends.
func SetHomeDir(t testing.TB, dir string) {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		MustSetenv(t, "USERPROFILE", dir)
	default:
		MustSetenv(t, "HOME", dir)
	}
}
