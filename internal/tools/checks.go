// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"context"

	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/pkg/templates"
)

const pytestTemplate = `import {{ env "PACKAGE_NAME" }}


def test_version():
    assert {{ env "PACKAGE_NAME" }}.__version__
`

type pytestTool struct{}

func newPytest(Options) (Tool, error) {
	return pytestTool{}, nil
}

func (pytestTool) Name() string { return "pytest" }

func (pytestTool) Description() string { return "pytest configuration and a first test." }

func (pytestTool) AddToStructure(s *project.Structure) error {
	s.Dir("tests")
	if err := s.Text("tests/test_{PACKAGE_NAME}.py", pytestTemplate); err != nil {
		return err
	}
	d, err := s.Config(PyprojectPath)
	if err != nil {
		return err
	}
	if err := d.Set(templates.P("tool", "pytest", "ini_options"), map[string]any{
		"testpaths": []string{"tests"},
		"addopts":   "-ra",
	}); err != nil {
		return err
	}
	return addExtra(s, "test", "pytest")
}

type ruffTool struct{}

func newRuff(Options) (Tool, error) {
	return ruffTool{}, nil
}

func (ruffTool) Name() string { return "ruff" }

func (ruffTool) Description() string { return "ruff linter and formatter configuration." }

func (ruffTool) AddToStructure(s *project.Structure) error {
	d, err := s.Config(PyprojectPath)
	if err != nil {
		return err
	}
	if err := d.Set(templates.P("tool", "ruff"), map[string]any{
		"line-length": 88,
		"src":         []string{"src", "tests"},
	}); err != nil {
		return err
	}
	if err := d.Set(templates.P("tool", "ruff", "lint", "select"), []string{"E", "F", "I", "UP", "B"}); err != nil {
		return err
	}
	return addExtra(s, "dev", "ruff")
}

type preCommitTool struct{}

func newPreCommit(Options) (Tool, error) {
	return preCommitTool{}, nil
}

func (preCommitTool) Name() string { return "pre-commit" }

func (preCommitTool) Description() string {
	return "pre-commit hooks checking merge conflicts, TOML, YAML and ruff."
}

func (preCommitTool) AddToStructure(s *project.Structure) error {
	d, err := s.Config(".pre-commit-config.yaml")
	if err != nil {
		return err
	}
	hook := func(id string, args ...string) map[string]any {
		h := map[string]any{"id": id}
		if len(args) > 0 {
			h["args"] = args
		}
		return h
	}
	if err := d.Set(templates.P("repos"), []any{
		map[string]any{
			"repo": "https://github.com/pre-commit/pre-commit-hooks",
			"rev":  "v5.0.0",
			"hooks": []any{
				hook("check-merge-conflict"),
				hook("check-toml"),
				hook("check-yaml"),
				hook("end-of-file-fixer"),
				hook("trailing-whitespace"),
			},
		},
		map[string]any{
			"repo": "https://github.com/astral-sh/ruff-pre-commit",
			"rev":  "v0.8.0",
			"hooks": []any{
				hook("ruff", "--fix"),
				hook("ruff-format"),
			},
		},
	}); err != nil {
		return err
	}
	return addExtra(s, "dev", "pre-commit")
}

// Post installs the git hook. It needs a repository and pre-commit in the
// Python environment, so failures only log a warning.
func (preCommitTool) Post(ctx context.Context, ws *Workspace) error {
	if !ws.Repository {
		ws.logger().Warn("no version control repository, skipping pre-commit install")
		return nil
	}
	if err := ws.Exec(ctx, "{"+templates.DefaultPythonVariable+"}", "-m", "pre_commit", "install"); err != nil {
		ws.logger().Warn("pre-commit install failed", "error", err)
	}
	return nil
}
