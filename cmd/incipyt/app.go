// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	executepkg "github.com/incipyt/incipyt/internal/app/execute"
	"github.com/incipyt/incipyt/internal/config"
	"github.com/incipyt/incipyt/internal/environ"
	"github.com/incipyt/incipyt/internal/logging"
	"github.com/incipyt/incipyt/internal/runner"
	"github.com/incipyt/incipyt/internal/tools"
	"github.com/incipyt/incipyt/internal/tui"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root of the CLI layer: every Cobra handler receives an App reference.
	App struct {
		Config   ConfigProvider
		Registry *tools.Registry
		// Clock is nil in production; the orchestrator then uses wall time.
		Clock       executepkg.Clock
		NewRunner   func(stdout, stderr io.Writer) runner.Runner
		LookPath    func(names ...string) error
		Environ     func() []string
		Interactive func() bool
		NewPrompter func(cfg *config.Config) Prompter
		stdout      io.Writer
		stderr      io.Writer

		// Persistent flag values.
		verbose    bool
		quiet      bool
		configPath string
		noInput    bool

		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		Registry    *tools.Registry
		Clock       executepkg.Clock
		NewRunner   func(stdout, stderr io.Writer) runner.Runner
		LookPath    func(names ...string) error
		Environ     func() []string
		Interactive func() bool
		NewPrompter func(cfg *config.Config) Prompter
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
		Source(opts config.LoadOptions) (string, error)
	}

	// Prompter asks for variable values and confirmations.
	Prompter interface {
		environ.Prompter
		executepkg.Confirmer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Registry == nil {
		deps.Registry = tools.DefaultRegistry()
	}
	if deps.NewRunner == nil {
		deps.NewRunner = func(stdout, stderr io.Writer) runner.Runner {
			r := runner.NewShellRunner(stdout, stderr)
			r.Logger = slog.Default()
			return r
		}
	}
	if deps.LookPath == nil {
		deps.LookPath = runner.CheckExecutables
	}
	if deps.Environ == nil {
		deps.Environ = os.Environ
	}
	if deps.Interactive == nil {
		deps.Interactive = tui.IsInputTerminal
	}
	if deps.NewPrompter == nil {
		deps.NewPrompter = newTUIPrompter
	}

	return &App{
		Config:      deps.Config,
		Registry:    deps.Registry,
		Clock:       deps.Clock,
		NewRunner:   deps.NewRunner,
		LookPath:    deps.LookPath,
		Environ:     deps.Environ,
		Interactive: deps.Interactive,
		NewPrompter: deps.NewPrompter,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		colorScheme: config.ColorSchemeAuto,
	}, nil
}

func newTUIPrompter(cfg *config.Config) Prompter {
	tcfg := tui.DefaultConfig()
	if theme := tui.Theme(cfg.UI.Theme); theme != "" {
		if valid, _ := theme.IsValid(); valid {
			tcfg.Theme = theme
		}
	}
	return tui.NewPrompter(tcfg)
}

// setupLogging installs the slog default for the current verbosity.
func (a *App) setupLogging() {
	logging.Setup(a.stderr, logging.Options{Verbose: a.verbose, Quiet: a.quiet})
}

// loadOptions maps the persistent flags to config load options.
func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.configPath}
}

// loadConfig loads the configuration and applies its UI settings that no flag
// overrode.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose && !a.verbose {
		a.verbose = true
		a.setupLogging()
	}
	if cfg.UI.NoInput {
		a.noInput = true
	}
	a.colorScheme = cfg.UI.ColorScheme
	return cfg, nil
}

// prompters returns the prompter used for variables and confirmations, or
// nil when prompts are disabled or stdin is not a terminal.
func (a *App) prompters(cfg *config.Config) (environ.Prompter, executepkg.Confirmer) {
	if a.noInput || !a.Interactive() {
		return nil, nil
	}
	p := a.NewPrompter(cfg)
	return p, p
}

// glamourStyle maps the color scheme to a glamour standard style.
func (a *App) glamourStyle() string {
	switch a.colorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
