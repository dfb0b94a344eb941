// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantWarn  bool
	}{
		{name: "default", opts: Options{}, wantDebug: false, wantWarn: true},
		{name: "verbose", opts: Options{Verbose: true}, wantDebug: true, wantWarn: true},
		{name: "quiet", opts: Options{Quiet: true}, wantDebug: false, wantWarn: false},
		{name: "verbose wins", opts: Options{Verbose: true, Quiet: true}, wantDebug: true, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(New(&buf, tt.opts))
			logger.Debug("debug line")
			logger.Warn("warn line", "path", "pyproject.toml")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "warn line"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v\n%s", got, tt.wantWarn, out)
			}
			if tt.wantWarn && !strings.Contains(out, "pyproject.toml") {
				t.Errorf("attributes missing from %q", out)
			}
			if tt.wantWarn && !strings.Contains(out, Prefix) {
				t.Errorf("prefix missing from %q", out)
			}
		})
	}
}

func TestSetupInstallsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	Setup(&buf, Options{Verbose: true})
	slog.Info("through the default")

	if !strings.Contains(buf.String(), "through the default") {
		t.Errorf("default logger did not write to the configured writer: %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	Discard().Error("nothing")
}
