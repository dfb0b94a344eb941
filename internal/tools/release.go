// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/pkg/templates"
)

// ReleaseWorkflowPath is where the release workflow is written.
const ReleaseWorkflowPath = ".github/workflows/release.yml"

type releaseTool struct{}

func newRelease(Options) (Tool, error) {
	return releaseTool{}, nil
}

func (releaseTool) Name() string { return "release" }

func (releaseTool) Description() string {
	return "GitHub workflow publishing releases to PyPI with trusted publishing."
}

func (releaseTool) AddToStructure(s *project.Structure) error {
	d, err := s.Config(ReleaseWorkflowPath)
	if err != nil {
		return err
	}
	if err := d.Merge(map[string]any{
		"name": "Release",
		"on": map[string]any{
			"release": map[string]any{"types": []string{"published"}},
		},
	}); err != nil {
		return err
	}
	if err := d.Set(templates.P("jobs", "publish"), map[string]any{
		"runs-on":     "ubuntu-latest",
		"environment": "pypi",
		"permissions": map[string]any{"id-token": "write"},
		"steps": []any{
			map[string]any{"uses": "actions/checkout@v4"},
			map[string]any{
				"uses": "actions/setup-python@v5",
				"with": map[string]any{"python-version": "3.x"},
			},
			map[string]any{"run": "python -m pip install build"},
			map[string]any{"run": "python -m build"},
			map[string]any{"uses": "pypa/gh-action-pypi-publish@release/v1"},
		},
	}); err != nil {
		return err
	}
	return addExtra(s, "build", "build")
}
