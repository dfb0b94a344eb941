// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/incipyt/incipyt/internal/config"
	"github.com/incipyt/incipyt/internal/testutil"
	"github.com/incipyt/incipyt/internal/tools"
)

// isolateConfig points the user config directory at a temp dir and moves the
// working directory there. Tests using it must not run in parallel.
func isolateConfig(t *testing.T) string {
	t.Helper()

	tmp := t.TempDir()
	cfgDir := filepath.Join(tmp, "cfg")
	testutil.MustMkdirAll(t, cfgDir, 0o755)
	config.SetConfigDirOverride(cfgDir)
	t.Cleanup(config.Reset)
	t.Cleanup(testutil.MustChdir(t, tmp))
	return cfgDir
}

// newConfigTestApp uses the real file provider.
func newConfigTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestApp(t, Dependencies{Config: config.NewProvider()})
}

func TestConfigCommands(t *testing.T) {
	cfgDir := isolateConfig(t)
	cfgFile := filepath.Join(cfgDir, "config.cue")

	app := newConfigTestApp(t)
	if err := app.run("config", "path"); err != nil {
		t.Fatalf("config path error = %v", err)
	}
	for _, want := range []string{"Config file: " + cfgFile, "Project file: ./incipyt.cue", "In use: (defaults)"} {
		if !strings.Contains(app.stdout.String(), want) {
			t.Errorf("config path missing %q:\n%s", want, app.stdout)
		}
	}

	app = newConfigTestApp(t)
	if err := app.run("config", "validate"); err != nil {
		t.Fatalf("config validate without file error = %v", err)
	}
	if !strings.Contains(app.stdout.String(), "defaults are in use") {
		t.Errorf("validate without file:\n%s", app.stdout)
	}

	app = newConfigTestApp(t)
	if err := app.run("config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(app.stdout.String(), "Created default configuration") {
		t.Errorf("config init output:\n%s", app.stdout)
	}
	if _, err := os.Stat(cfgFile); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	app = newConfigTestApp(t)
	if err := app.run("config", "init"); err != nil {
		t.Fatalf("second config init error = %v", err)
	}
	if !strings.Contains(app.stdout.String(), "already exists") {
		t.Errorf("second config init output:\n%s", app.stdout)
	}

	for _, kv := range [][2]string{
		{"author.name", "Jane Doe"},
		{"defaults.tools", "git, hatch,pytest"},
		{"defaults.license", "apache-2.0"},
		{"vars.HOMEPAGE", "https://example.com"},
	} {
		app = newConfigTestApp(t)
		if err := app.run("config", "set", kv[0], kv[1]); err != nil {
			t.Fatalf("config set %s error = %v\nstderr: %s", kv[0], err, app.stderr)
		}
	}

	app = newConfigTestApp(t)
	if err := app.run("config", "show"); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{cfgFile, "Jane Doe", "git, hatch, pytest", "Apache-2.0", "HOMEPAGE", "https://example.com"} {
		if !strings.Contains(app.stdout.String(), want) {
			t.Errorf("config show missing %q:\n%s", want, app.stdout)
		}
	}

	app = newConfigTestApp(t)
	if err := app.run("config", "dump"); err != nil {
		t.Fatalf("config dump error = %v", err)
	}
	if !strings.Contains(app.stdout.String(), `"Jane Doe"`) {
		t.Errorf("config dump:\n%s", app.stdout)
	}

	app = newConfigTestApp(t)
	if err := app.run("config", "validate"); err != nil {
		t.Fatalf("config validate error = %v\nstderr: %s", err, app.stderr)
	}
	if !strings.Contains(app.stdout.String(), cfgFile+" is valid") {
		t.Errorf("config validate:\n%s", app.stdout)
	}

	app = newConfigTestApp(t)
	if err := app.run("config", "init", "--force"); err != nil {
		t.Fatalf("config init --force error = %v", err)
	}
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Jane Doe") {
		t.Errorf("config init --force kept old values:\n%s", data)
	}
}

func TestConfigSet_Rejects(t *testing.T) {
	cfgDir := isolateConfig(t)

	for _, kv := range [][2]string{
		{"nope.key", "x"},
		{"defaults.tools", "git,poetry"},
		{"defaults.license", "WTFPL"},
		{"ui.color_scheme", "neon"},
	} {
		app := newConfigTestApp(t)
		requireExitCode(t, app.run("config", "set", kv[0], kv[1]), 1)
		if app.stderr.Len() == 0 {
			t.Errorf("config set %s %s printed no error", kv[0], kv[1])
		}
	}

	if _, err := os.Stat(filepath.Join(cfgDir, "config.cue")); !os.IsNotExist(err) {
		t.Error("rejected values must not create a config file")
	}
}

func TestConfigValidate_InvalidFile(t *testing.T) {
	isolateConfig(t)

	path := filepath.Join(t.TempDir(), "bad.cue")
	if err := os.WriteFile(path, []byte(`ui: color_scheme: "neon"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	app := newConfigTestApp(t)
	requireExitCode(t, app.run("config", "validate", path), 1)
	if !strings.Contains(app.stderr.String(), "color_scheme") {
		t.Errorf("stderr should name the bad field:\n%s", app.stderr)
	}
}

func TestApplyConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		value   string
		check   func(*config.Config) bool
		wantErr error
	}{
		{key: "python.command", value: "python3.12", check: func(c *config.Config) bool { return c.Python.Command == "python3.12" }},
		{key: "python.requires", value: ">=3.11", check: func(c *config.Config) bool { return c.Python.Requires == ">=3.11" }},
		{key: "defaults.tools", value: "Git, RUFF", check: func(c *config.Config) bool { return slices.Equal(c.Defaults.Tools, []string{"git", "ruff"}) }},
		{key: "defaults.tools", value: "project", wantErr: tools.ErrUnknownTool},
		{key: "defaults.license", value: "mit", check: func(c *config.Config) bool { return c.Defaults.License == "MIT" }},
		{key: "defaults.license", value: "WTFPL", wantErr: tools.ErrUnknownLicense},
		{key: "defaults.cli", value: "true", check: func(c *config.Config) bool { return c.Defaults.CLI }},
		{key: "ui.no_input", value: "maybe", check: func(c *config.Config) bool { return !c.UI.NoInput }},
		{key: "ui.theme", value: "charm", check: func(c *config.Config) bool { return c.UI.Theme == "charm" }},
		{key: "vars.ORG", value: "acme", check: func(c *config.Config) bool { return c.Vars["ORG"] == "acme" }},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			err := applyConfigValue(cfg, tt.key, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("applyConfigValue() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyConfigValue() error = %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("applyConfigValue(%s, %s) not applied: %+v", tt.key, tt.value, cfg)
			}
		})
	}

	if err := applyConfigValue(config.DefaultConfig(), "ui.theme", "rainbow"); err == nil {
		t.Error("unknown theme should be rejected")
	}
}
