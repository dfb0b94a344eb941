// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/incipyt/incipyt/internal/runner"
)

// baseVersion is the release line reported by builds without ldflags.
const baseVersion = "0.0.1"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app. Given a folder, the root
// command scaffolds it like `incipyt init`.
func newRootCommand(app *App) *cobra.Command {
	opts := &initOptions{}

	rootCmd := &cobra.Command{
		Use:   "incipyt [FOLDER]",
		Short: "Bootstrap Python projects",
		Long: TitleStyle.Render("incipyt") + SubtitleStyle.Render(" - Bootstrap Python projects") + `

incipyt creates the skeleton of a Python project: pyproject.toml, a src/
package, and optionally git, a virtual environment, a license, test and lint
configuration, and a release workflow.

` + SubtitleStyle.Render("Examples:") + `
  incipyt my-project                        Scaffold with the configured default tools
  incipyt init --build hatch my-project     Choose the build backend
  incipyt init --check pytest,ruff --cli .  Add checks and a console entry point
  incipyt tools                             List the available tools
  incipyt config show                       Show the current configuration`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runInit(cmd, app, opts, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&app.quiet, "quiet", "q", false, "only log errors (--verbose wins)")
	pf.StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/incipyt/config.cue, then ./incipyt.cue)")
	pf.BoolVar(&app.noInput, "no-input", false, "never prompt, fail on missing values")

	addInitFlags(rootCmd, opts)

	rootCmd.AddCommand(
		newInitCommand(app),
		newToolsCommand(app),
		newConfigCommand(app),
		newCompletionCommand(),
	)

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return baseVersion + "-dev (built from source)"
}

// Execute runs the CLI and exits with the status of the failed command, if any.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+err.Error())
		os.Exit(1)
	}

	os.Exit(int(execute(context.Background(), app, os.Args[1:])))
}

// execute runs the command tree with args under fang and returns the exit status.
func execute(ctx context.Context, app *App, args []string) runner.ExitCode {
	root := newRootCommand(app)
	root.SetArgs(args)

	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// errorHandler prints errors cobra returned on its own, such as unknown flags.
// An *ExitError comes from App.fail, which already rendered it.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
