// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	executepkg "github.com/incipyt/incipyt/internal/app/execute"
	"github.com/incipyt/incipyt/internal/environ"
	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/internal/tools"
)

// initOptions holds the flags of `incipyt init`.
type initOptions struct {
	vcs        string
	env        string
	build      string
	license    string
	checks     []string
	ci         []string
	cli        bool
	vars       []string
	python     string
	force      bool
	dryRun     bool
	noCommands bool
}

// newInitCommand creates the `incipyt init` command.
func newInitCommand(app *App) *cobra.Command {
	opts := &initOptions{}

	initCmd := &cobra.Command{
		Use:   "init [FOLDER]",
		Short: "Scaffold a Python project",
		Long: `Scaffold a Python project in FOLDER (default: the current directory).

Without tool flags the tools listed in defaults.tools of the configuration are
used. Any tool flag replaces that list. Every variable the chosen tools need is
asked for before anything is written; use --var or --no-input to script it.`,
		Example: `  incipyt init my-project
  incipyt init --vcs git --env venv --build hatch --license Apache-2.0 my-project
  incipyt init --check pytest,ruff,pre-commit --ci release --cli my-project
  incipyt init --no-input --var AUTHOR_NAME="Jane Doe" --var DESCRIPTION="Demo" .`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, app, opts, args)
		},
	}

	addInitFlags(initCmd, opts)
	registerToolCompletions(initCmd, app.Registry)
	return initCmd
}

func addInitFlags(cmd *cobra.Command, opts *initOptions) {
	fs := cmd.Flags()
	fs.StringVar(&opts.vcs, "vcs", "", "version control tool (git)")
	fs.StringVar(&opts.env, "env", "", "virtual environment tool (venv)")
	fs.StringVar(&opts.build, "build", "", "build backend (setuptools, hatch)")
	fs.StringVar(&opts.license, "license", "", "license identifier, enables the license tool (MIT, BSD-3-Clause, Apache-2.0, GPL-3.0-or-later)")
	fs.StringSliceVar(&opts.checks, "check", nil, "check tools, comma separated (pytest, ruff, pre-commit)")
	fs.StringSliceVar(&opts.ci, "ci", nil, "continuous integration tools (release)")
	fs.BoolVar(&opts.cli, "cli", false, "add a console script entry point")
	fs.StringArrayVar(&opts.vars, "var", nil, "set a template variable, KEY=VALUE (repeatable)")
	fs.StringVar(&opts.python, "python", "", "Python interpreter used to create the environment")
	fs.BoolVarP(&opts.force, "force", "f", false, "scaffold into a non-empty folder and overwrite existing files")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print files and commands without writing or running anything")
	fs.BoolVar(&opts.noCommands, "no-commands", false, "write files but run no external command")
}

// registerToolCompletions completes tool flags with the registered tool names.
func registerToolCompletions(cmd *cobra.Command, reg *tools.Registry) {
	byCategory := map[string]tools.Category{
		"vcs":   tools.CategoryVCS,
		"env":   tools.CategoryEnv,
		"build": tools.CategoryBuild,
		"check": tools.CategoryCheck,
		"ci":    tools.CategoryCI,
	}
	for flag, category := range byCategory {
		_ = cmd.RegisterFlagCompletionFunc(flag, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			var names []string
			for _, r := range reg.Registrations() {
				if r.Category == category {
					names = append(names, r.Name+"\t"+r.Description)
				}
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		})
	}
	_ = cmd.RegisterFlagCompletionFunc("license", cobra.FixedCompletions(tools.Licenses(), cobra.ShellCompDirectiveNoFileComp))
}

func runInit(cmd *cobra.Command, app *App, opts *initOptions, args []string) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.fail(cmd, err)
	}

	vars, err := environ.ParseAssignments(opts.vars)
	if err != nil {
		return app.fail(cmd, err)
	}

	cli := cfg.Defaults.CLI
	if cmd.Flags().Changed("cli") {
		cli = opts.cli
	}

	names := executepkg.ResolveTools(executepkg.ToolFlags{
		VCS:     opts.vcs,
		Env:     opts.env,
		Build:   opts.build,
		License: opts.license,
		Checks:  opts.checks,
		CI:      opts.ci,
	}, cfg)

	// External command output is only shown in verbose mode.
	cmdOut, cmdErr := io.Discard, io.Discard
	if app.verbose {
		cmdOut, cmdErr = stdout, cmd.ErrOrStderr()
	}

	prompter, confirmer := app.prompters(cfg)
	orch := &executepkg.Orchestrator{
		Registry:  app.Registry,
		Config:    cfg,
		Prompter:  prompter,
		Confirmer: confirmer,
		Runner:    app.NewRunner(cmdOut, cmdErr),
		Probe:     app.NewRunner(io.Discard, io.Discard),
		DryRunOut: stdout,
		Environ:   app.Environ(),
		LookPath:  app.LookPath,
		Clock:     app.Clock,
		Logger:    slog.Default(),
	}
	if opts.dryRun {
		fmt.Fprintln(stdout, TitleStyle.Render("Dry run")+SubtitleStyle.Render(" - commands that would run:"))
	}

	res, err := orch.Run(ctx, executepkg.Request{
		Root:       root,
		Tools:      names,
		Options:    tools.Options{CLI: cli, License: opts.license},
		Vars:       vars,
		Python:     opts.python,
		Force:      opts.force,
		DryRun:     opts.dryRun,
		NoCommands: opts.noCommands,
	})
	if err != nil {
		return app.fail(cmd, err)
	}

	printReport(stdout, res, opts, app.verbose)
	return nil
}

// printReport summarizes a scaffold run.
func printReport(w io.Writer, res *executepkg.Result, opts *initOptions, verbose bool) {
	fmt.Fprintln(w)
	if opts.dryRun {
		fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Would scaffold"), CmdStyle.Render(res.Root))
	} else {
		fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Scaffolded"), CmdStyle.Render(res.Root))
	}
	fmt.Fprintf(w, "%s %s\n\n", SubtitleStyle.Render("tools:"), SubtitleStyle.Render(fmt.Sprint(res.Tools)))

	for _, f := range res.Report.Files {
		fmt.Fprintf(w, "  %s %s\n", statusIcon(f.Status), f.Path)
	}

	if skipped := res.Report.Count(project.StatusSkipped); skipped > 0 {
		fmt.Fprintf(w, "\n%s %d existing file(s) kept, use --force to overwrite\n", WarningStyle.Render("!"), skipped)
	}

	if verbose {
		fmt.Fprintln(w)
		fmt.Fprintln(w, VerboseStyle.Render("Variables:"))
		for _, e := range res.Vars {
			fmt.Fprintf(w, "  %s = %q\n", CmdStyle.Render(e.Key), e.Value.Value)
		}
		fmt.Fprintf(w, "%s %s\n", VerboseStyle.Render("Elapsed:"), res.Elapsed)
	}

	if opts.dryRun {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("Next steps:"))
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, res.Root); err == nil && rel != "." {
			fmt.Fprintf(w, "  cd %s\n", rel)
		}
	}
	if slices.Contains(res.Tools, "venv") {
		fmt.Fprintf(w, "  source %s/bin/activate\n", tools.VenvDir)
	}
	if slices.Contains(res.Tools, "pytest") {
		fmt.Fprintln(w, "  pytest")
	}
}
