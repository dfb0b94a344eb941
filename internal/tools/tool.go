// SPDX-License-Identifier: MPL-2.0

// Package tools holds the building blocks a project is assembled from.
//
// Each Tool contributes files to a project.Structure and may run commands
// before (PreHook) or after (PostHook) the files are written. Tools are
// looked up by name in a Registry, which also enforces that single-choice
// categories (vcs, env, build) hold at most one tool.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/internal/runner"
	"github.com/incipyt/incipyt/pkg/templates"
)

// ErrEmptyArgument is returned when a command argument template renders to nothing.
var ErrEmptyArgument = errors.New("command argument rendered empty")

type (
	// Tool contributes files to a project.
	Tool interface {
		Name() string
		Description() string
		AddToStructure(s *project.Structure) error
	}

	// PreHook is implemented by tools that run commands before files are written.
	PreHook interface {
		Pre(ctx context.Context, ws *Workspace) error
	}

	// PostHook is implemented by tools that run commands after files are written.
	PostHook interface {
		Post(ctx context.Context, ws *Workspace) error
	}

	// Requirer is implemented by tools that need programs on PATH.
	// Names may be templates such as "{PYTHON_CMD}".
	Requirer interface {
		Executables() []string
	}

	// Env is the environment hooks work with. Replace overrides confirmed values.
	Env interface {
		templates.Environment
		Replace(key, value string)
	}

	// Workspace is what hooks operate on.
	Workspace struct {
		// Root is the absolute project directory.
		Root string
		// Repository reports that Root is, or will be once the vcs hooks
		// run, a version control repository. It holds in dry runs too.
		Repository bool
		Env        Env
		Runner     runner.Runner
		Logger     *slog.Logger
	}

	// Options are the user choices tools are built from.
	Options struct {
		// CLI adds a console script entry point.
		CLI bool
		// License is the SPDX identifier used by the license tool.
		License string
	}
)

// Command renders args through the environment into a command run in Root.
func (w *Workspace) Command(ctx context.Context, args ...string) (runner.Command, error) {
	if len(args) == 0 {
		return runner.Command{}, errors.New("empty command")
	}
	rendered := make([]string, len(args))
	for i, a := range args {
		if !templates.HasFields(a) {
			rendered[i] = a
			continue
		}
		out, ok, err := templates.RenderString(ctx, w.Env, a, templates.RenderOptions{})
		if err != nil {
			return runner.Command{}, err
		}
		if !ok {
			return runner.Command{}, fmt.Errorf("%w: %s", ErrEmptyArgument, a)
		}
		rendered[i] = out
	}
	return runner.Command{Name: rendered[0], Args: rendered[1:], Dir: w.Root}, nil
}

// Exec renders and runs a command in Root.
func (w *Workspace) Exec(ctx context.Context, args ...string) error {
	cmd, err := w.Command(ctx, args...)
	if err != nil {
		return err
	}
	w.logger().Info("running", "command", cmd.String())
	return w.Runner.Run(ctx, cmd)
}

func (w *Workspace) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}
