// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/incipyt/incipyt/internal/config"
	"github.com/incipyt/incipyt/internal/environ"
	"github.com/incipyt/incipyt/internal/issue"
	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/internal/runner"
	"github.com/incipyt/incipyt/internal/tools"
	"github.com/incipyt/incipyt/internal/tui"
	"github.com/incipyt/incipyt/pkg/pyname"
	"github.com/incipyt/incipyt/pkg/templates"
)

// Variables the orchestrator seeds or derives.
const (
	VarProjectName    = "PROJECT_NAME"
	VarPackageName    = "PACKAGE_NAME"
	VarDescription    = "DESCRIPTION"
	VarRequiresPython = "REQUIRES_PYTHON"
	VarAuthorName     = "AUTHOR_NAME"
	VarAuthorEmail    = "AUTHOR_EMAIL"
	VarYear           = "YEAR"
)

var (
	// ErrInvalidRequest is the sentinel error wrapped by InvalidRequestError.
	ErrInvalidRequest = errors.New("invalid scaffold request")
	// ErrInvalidProjectName is returned when PROJECT_NAME cannot be normalized
	// into a valid distribution name.
	ErrInvalidProjectName = errors.New("invalid project name")
	// ErrAborted is returned when the user declines to continue.
	ErrAborted = errors.New("aborted")
)

type (
	// Clock is the time source of a run.
	Clock interface {
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	// Confirmer asks a yes/no question.
	Confirmer interface {
		Confirm(ctx context.Context, title string, def bool) (bool, error)
	}

	// ToolFlags are the tool selections given on the command line. Empty
	// fields mean "not given".
	ToolFlags struct {
		VCS     string
		Env     string
		Build   string
		License string
		Checks  []string
		CI      []string
	}

	// Request captures one `incipyt init` invocation.
	Request struct {
		// Root is the project folder, relative or absolute.
		Root string
		// Tools are the tool names to enable, without the always-on project tool.
		Tools []string
		// Options configure tool construction.
		Options tools.Options
		// Vars are KEY=VALUE assignments from the command line (confirmed).
		Vars map[string]string
		// Python overrides the configured interpreter.
		Python string
		// Force writes into a non-empty folder and overwrites existing files.
		Force bool
		// DryRun renders everything, prints commands and writes nothing.
		DryRun bool
		// NoCommands writes files but runs no external command.
		NoCommands bool
	}

	// InvalidRequestError collects field-level validation errors.
	InvalidRequestError struct {
		FieldErrors []error
	}

	// InvalidProjectNameError reports a PROJECT_NAME that does not normalize
	// into a valid distribution name.
	InvalidProjectNameError struct {
		Raw        string
		Normalized string
	}

	// Result summarizes a run.
	Result struct {
		Root   string
		Tools  []string
		Report *project.Report
		// Commands lists what a dry run would have executed.
		Commands []runner.Command
		Vars     []environ.Entry
		Elapsed  time.Duration
	}

	// Orchestrator turns a Request into a project on disk.
	Orchestrator struct {
		Registry *tools.Registry
		Config   *config.Config
		// Prompter asks for variable values. Nil means non-interactive.
		Prompter environ.Prompter
		// Confirmer is asked before scaffolding into a non-empty folder. Nil
		// turns a non-empty folder into an error.
		Confirmer Confirmer
		// Runner executes tool commands.
		Runner runner.Runner
		// Probe runs read-only commands such as `git config` even on dry runs.
		Probe runner.Runner
		// DryRunOut receives the commands of a dry run.
		DryRunOut io.Writer
		// Environ is the process environment scanned for INCIPYT_VAR_*.
		Environ []string
		// LookPath checks that programs are installed.
		LookPath func(names ...string) error
		Clock    Clock
		Logger   *slog.Logger
	}
)

// Error implements the error interface for InvalidRequestError.
func (e *InvalidRequestError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid scaffold request: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidRequest followed by the field errors.
func (e *InvalidRequestError) Unwrap() []error {
	return append([]error{ErrInvalidRequest}, e.FieldErrors...)
}

func (e *InvalidProjectNameError) Error() string {
	if e.Normalized != "" && e.Normalized != e.Raw {
		return fmt.Sprintf("invalid project name %q (normalized to %q)", e.Raw, e.Normalized)
	}
	return fmt.Sprintf("invalid project name %q", e.Raw)
}

// Unwrap returns ErrInvalidProjectName.
func (e *InvalidProjectNameError) Unwrap() error { return ErrInvalidProjectName }

// IsValid checks the request before anything touches the filesystem.
func (r Request) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(r.Root) == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if r.Options.License != "" {
		if _, err := tools.CanonicalLicense(r.Options.License); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidRequestError{FieldErrors: errs}}
	}
	return true, nil
}

// ResolveTools applies tool-selection precedence:
//  1. tool flags, when at least one is given, select exactly those tools
//  2. otherwise the configured default tools
//
// Naming a license on the command line always enables the license tool.
func ResolveTools(flags ToolFlags, cfg *config.Config) []string {
	var names []string
	for _, single := range []string{flags.VCS, flags.Env, flags.Build} {
		if single != "" {
			names = append(names, single)
		}
	}
	names = append(names, flags.Checks...)
	names = append(names, flags.CI...)

	if len(names) == 0 && cfg != nil {
		names = append(names, cfg.Defaults.Tools...)
	}
	if flags.License != "" && !slices.Contains(names, "license") {
		names = append(names, "license")
	}
	return names
}

// Run scaffolds the project described by req.
//
// Every variable is asked for while rendering, before any command runs, so a
// cancelled prompt leaves nothing behind.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := o.clock().Now()
	logger := o.logger()

	if valid, errs := req.IsValid(); !valid {
		return nil, errs[0]
	}

	root, err := filepath.Abs(req.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", req.Root, err)
	}

	opts := req.Options
	if opts.License == "" && o.Config != nil {
		opts.License = o.Config.Defaults.License
	}
	toolset, err := o.registry().Resolve(req.Tools, opts)
	if err != nil {
		return nil, wrapToolError(err)
	}

	if err := o.checkTarget(ctx, root, req.Force); err != nil {
		return nil, err
	}

	env := environ.New(environ.WithPrompter(o.Prompter), environ.WithLogger(logger))
	o.seed(ctx, env, root, req)
	if err := o.nameProject(ctx, env); err != nil {
		return nil, err
	}

	structure := project.NewStructure()
	names := make([]string, 0, len(toolset))
	for _, t := range toolset {
		names = append(names, t.Name())
		if err := t.AddToStructure(structure); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name(), err)
		}
	}
	logger.Debug("tools resolved", "tools", names)

	files, dirs, err := structure.Render(ctx, env)
	if err != nil {
		return nil, wrapRenderError(err)
	}

	runCommands := !req.NoCommands
	r := o.Runner
	var dry *runner.DryRunner
	if req.DryRun {
		dry = &runner.DryRunner{Out: o.DryRunOut}
		r = dry
	} else if runCommands {
		if err := o.checkExecutables(ctx, env, toolset); err != nil {
			return nil, err
		}
	}

	if !req.DryRun {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", root, err)
		}
	}

	ws := &tools.Workspace{
		Root:       root,
		Repository: o.hasRepository(root, toolset),
		Env:        env,
		Runner:     r,
		Logger:     logger,
	}
	if runCommands {
		for _, t := range toolset {
			if h, ok := t.(tools.PreHook); ok {
				if err := h.Pre(ctx, ws); err != nil {
					return nil, wrapCommandError(t.Name(), err)
				}
			}
		}
	}

	report, err := project.Write(root, files, dirs, project.CommitOptions{Force: req.Force, DryRun: req.DryRun})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("write project files").
			WithResource(root).
			WithSuggestion("Check that the folder is writable").
			Wrap(err).
			BuildError()
	}

	if runCommands {
		for _, t := range toolset {
			if h, ok := t.(tools.PostHook); ok {
				if err := h.Post(ctx, ws); err != nil {
					return nil, wrapCommandError(t.Name(), err)
				}
			}
		}
	}

	res := &Result{
		Root:    root,
		Tools:   names,
		Report:  report,
		Vars:    env.Snapshot(),
		Elapsed: o.clock().Since(start),
	}
	if dry != nil {
		res.Commands = dry.Commands()
	}
	logger.Debug("scaffold finished", "root", root, "files", len(report.Files), "elapsed", res.Elapsed)
	return res, nil
}

// hasRepository reports whether root will be under version control once the
// pre hooks ran: a vcs tool is selected or root already holds a git repository.
// It is decided from the request so dry runs plan the same commands.
func (o *Orchestrator) hasRepository(root string, toolset []tools.Tool) bool {
	for _, t := range toolset {
		if reg, ok := o.registry().Lookup(t.Name()); ok && reg.Category == tools.CategoryVCS {
			return true
		}
	}
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}

// seed fills env. --var assignments are confirmed and pushed first so nothing
// overrides them. The rest is pushed in increasing priority: built-in
// defaults, git identity, configuration and INCIPYT_VAR_* variables. These
// stay unconfirmed so interactive runs offer them as defaults.
func (o *Orchestrator) seed(ctx context.Context, env *environ.Environment, root string, req Request) {
	env.Seed(req.Vars, true)

	python := config.DefaultPythonCommand
	requires := config.DefaultRequiresPython
	if o.Config != nil {
		if o.Config.Python.Command != "" {
			python = o.Config.Python.Command
		}
		if o.Config.Python.Requires != "" {
			requires = o.Config.Python.Requires
		}
	}
	if req.Python != "" {
		python = req.Python
	}

	env.Push(templates.DefaultPythonVariable, python, true)
	env.Push(VarYear, strconv.Itoa(o.clock().Now().Year()), true)
	env.Seed(map[string]string{
		VarProjectName:    filepath.Base(root),
		VarRequiresPython: requires,
		VarDescription:    "",
		VarAuthorName:     "",
		VarAuthorEmail:    "",
	}, false)

	if o.Probe != nil {
		env.Seed(tools.GitIdentity(ctx, o.Probe), false)
	}

	if o.Config != nil {
		author := map[string]string{}
		if o.Config.Author.Name != "" {
			author[VarAuthorName] = o.Config.Author.Name
		}
		if o.Config.Author.Email != "" {
			author[VarAuthorEmail] = o.Config.Author.Email
		}
		env.Seed(author, false)
		env.Seed(o.Config.Vars, false)
	}

	env.SeedFromOS(o.Environ)
}

// nameProject settles PROJECT_NAME in its normalized form and derives
// PACKAGE_NAME from it unless the user set one.
func (o *Orchestrator) nameProject(ctx context.Context, env *environ.Environment) error {
	raw, err := env.Pull(ctx, VarProjectName)
	if err != nil {
		return wrapRenderError(err)
	}

	name := pyname.ProjectName(raw)
	if !pyname.IsValidProjectName(name) {
		return issue.NewErrorContext().
			WithOperation("name project").
			WithSuggestion("Use ASCII letters, digits, '.', '_' and '-'").
			WithSuggestion("Set it explicitly with --var PROJECT_NAME=<name>").
			WithIssue(issue.InvalidProjectNameId).
			Wrap(&InvalidProjectNameError{Raw: raw, Normalized: name}).
			BuildError()
	}
	if name != raw {
		o.logger().Info("normalized project name", "from", raw, "to", name)
		env.Replace(VarProjectName, name)
	}

	env.Push(VarPackageName, pyname.PackageName(name), true)
	return nil
}

func (o *Orchestrator) checkTarget(ctx context.Context, root string, force bool) error {
	if force {
		return nil
	}

	var ignore []string
	ignore = append(ignore, project.DefaultIgnore...)
	if o.Config != nil {
		ignore = append(ignore, o.Config.Ignore...)
	}

	err := project.CheckTarget(root, ignore)
	if err == nil {
		return nil
	}
	if !errors.Is(err, project.ErrTargetNotEmpty) {
		return fmt.Errorf("check target folder: %w", err)
	}

	if o.Confirmer != nil {
		ok, cerr := o.Confirmer.Confirm(ctx, fmt.Sprintf("%s is not empty. Add the missing files and keep existing ones?", root), false)
		if cerr != nil {
			return wrapRenderError(cerr)
		}
		if ok {
			o.logger().Info("continuing in a non-empty folder", "root", root)
			return nil
		}
		err = fmt.Errorf("%w: %w", ErrAborted, err)
	}

	return issue.NewErrorContext().
		WithOperation("check target folder").
		WithResource(root).
		WithSuggestion("Choose a new or empty folder").
		WithSuggestion("Use --force to write into it anyway").
		WithIssue(issue.TargetNotEmptyId).
		Wrap(err).
		BuildError()
}

// checkExecutables renders the programs tools need (for example
// "{PYTHON_CMD}") and verifies that they are installed.
func (o *Orchestrator) checkExecutables(ctx context.Context, env templates.Environment, toolset []tools.Tool) error {
	var names []string
	for _, t := range toolset {
		req, ok := t.(tools.Requirer)
		if !ok {
			continue
		}
		for _, exe := range req.Executables() {
			if !templates.HasFields(exe) {
				names = append(names, exe)
				continue
			}
			out, ok, err := templates.RenderString(ctx, env, exe, templates.RenderOptions{})
			if err != nil {
				return wrapRenderError(err)
			}
			if ok {
				names = append(names, out)
			}
		}
	}

	lookPath := o.LookPath
	if lookPath == nil {
		lookPath = runner.CheckExecutables
	}
	if err := lookPath(names...); err != nil {
		return issue.NewErrorContext().
			WithOperation("check required programs").
			WithSuggestion("Install the missing programs or choose another --python").
			WithSuggestion("Use --no-commands to only write the files").
			WithIssue(issue.ExecutableNotFoundId).
			Wrap(err).
			BuildError()
	}
	return nil
}

func wrapToolError(err error) error {
	ctx := issue.NewErrorContext().WithOperation("select tools").Wrap(err)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		ctx.WithSuggestion("Run 'incipyt tools' to list the available tools").WithIssue(issue.UnknownToolId)
	case errors.Is(err, tools.ErrToolConflict):
		ctx.WithSuggestion("Keep a single tool per vcs, env, build and license category").WithIssue(issue.ToolConflictId)
	}
	return ctx.BuildError()
}

func wrapRenderError(err error) error {
	switch {
	case errors.Is(err, environ.ErrMissingVariable):
		return issue.NewErrorContext().
			WithOperation("render project files").
			WithSuggestion("Pass the value with --var KEY=VALUE or INCIPYT_VAR_KEY").
			WithIssue(issue.MissingVariableId).
			Wrap(err).
			BuildError()
	case errors.Is(err, tui.ErrCancelled):
		return issue.NewErrorContext().
			WithOperation("ask for project details").
			WithIssue(issue.PromptCancelledId).
			Wrap(err).
			BuildError()
	default:
		return fmt.Errorf("render project files: %w", err)
	}
}

func wrapCommandError(tool string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("run " + tool + " commands").
		Wrap(err)
	if errors.Is(err, runner.ErrCommandFailed) {
		ctx.WithSuggestion("Rerun with --verbose to see the command output").
			WithSuggestion("Use --no-commands to skip external commands").
			WithIssue(issue.CommandFailedId)
	}
	return ctx.BuildError()
}

func (o *Orchestrator) registry() *tools.Registry {
	if o.Registry == nil {
		return tools.DefaultRegistry()
	}
	return o.Registry
}

func (o *Orchestrator) clock() Clock {
	if o.Clock == nil {
		return realClock{}
	}
	return o.Clock
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

type realClock struct{}

func (realClock) Now() time.Time                  { return time.Now() }
func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }
