// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"context"

	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/internal/runner"
)

var pythonIgnores = []string{
	"__pycache__/",
	"*.py[cod]",
	"*.egg-info/",
	"build/",
	"dist/",
	".pytest_cache/",
	".ruff_cache/",
	".coverage",
	"htmlcov/",
}

type gitTool struct{}

func newGit(Options) (Tool, error) {
	return gitTool{}, nil
}

func (gitTool) Name() string { return "git" }

func (gitTool) Description() string { return "Git repository with a Python .gitignore." }

func (gitTool) Executables() []string { return []string{"git"} }

func (gitTool) AddToStructure(s *project.Structure) error {
	return s.Lines(".gitignore", pythonIgnores...)
}

// Pre initializes the repository. Re-running git init on an existing repository is harmless.
func (gitTool) Pre(ctx context.Context, ws *Workspace) error {
	return ws.Exec(ctx, "git", "init", "--quiet")
}

// Post stages every generated file.
func (gitTool) Post(ctx context.Context, ws *Workspace) error {
	return ws.Exec(ctx, "git", "add", "--all")
}

// GitIdentity reads user.name and user.email from git config as AUTHOR_NAME and
// AUTHOR_EMAIL. Missing entries and a missing git are not errors.
func GitIdentity(ctx context.Context, r runner.Runner) map[string]string {
	vars := make(map[string]string, 2)
	for key, variable := range map[string]string{"user.name": "AUTHOR_NAME", "user.email": "AUTHOR_EMAIL"} {
		out, err := r.Output(ctx, runner.Command{Name: "git", Args: []string{"config", "--get", key}})
		if err != nil || out == "" {
			continue
		}
		vars[variable] = out
	}
	return vars
}
