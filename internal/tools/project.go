// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/pkg/pyname"
	"github.com/incipyt/incipyt/pkg/templates"
)

// PyprojectPath is where package metadata lives.
const PyprojectPath = "pyproject.toml"

const (
	readmeTemplate = `# {{ env "PROJECT_NAME" }}
{{ with envOr "DESCRIPTION" "" }}
{{ . }}
{{ end }}
## Installation

    pip install {{ env "PROJECT_NAME" }}
`

	initTemplate = `"""{{ envOr "DESCRIPTION" (env "PROJECT_NAME") }}"""

__version__ = "0.0.1"
`

	mainTemplate = `"""Command line entry point for {{ env "PROJECT_NAME" }}."""


def main():
    print("Hello from {{ env "PROJECT_NAME" }}!")


if __name__ == "__main__":
    main()
`
)

// projectTool lays out the package and its core metadata.
type projectTool struct {
	cli bool
}

func newProject(opts Options) (Tool, error) {
	return &projectTool{cli: opts.CLI}, nil
}

func (t *projectTool) Name() string { return "project" }

func (t *projectTool) Description() string {
	return "Python package skeleton under src/ with pyproject.toml metadata and README."
}

func (t *projectTool) AddToStructure(s *project.Structure) error {
	d, err := s.Config(PyprojectPath)
	if err != nil {
		return err
	}

	name := templates.NewRequires("{PROJECT_NAME}")
	name.Sanitizer = pyname.SanitizeProject

	classifiers := []string{
		"Programming Language :: Python :: 3",
		"Operating System :: OS Independent",
	}
	if t.cli {
		classifiers = append(classifiers, "Environment :: Console")
	}

	if err := d.Set(templates.P("project"), map[string]any{
		"name":            name,
		"version":         "0.0.1",
		"description":     "{DESCRIPTION}",
		"readme":          "README.md",
		"requires-python": "{REQUIRES_PYTHON}",
		"authors": []any{
			map[string]any{"name": "{AUTHOR_NAME}", "email": "{AUTHOR_EMAIL}"},
		},
		"classifiers": classifiers,
	}); err != nil {
		return err
	}

	if err := s.Text("README.md", readmeTemplate); err != nil {
		return err
	}
	if err := s.Text("src/{PACKAGE_NAME}/__init__.py", initTemplate); err != nil {
		return err
	}

	if t.cli {
		if err := d.Set(templates.P("project", "scripts", "{PROJECT_NAME}"), "{PACKAGE_NAME}.__main__:main"); err != nil {
			return err
		}
		if err := s.Text("src/{PACKAGE_NAME}/__main__.py", mainTemplate); err != nil {
			return err
		}
	}
	return nil
}

// addExtra adds packages to an optional dependency group of pyproject.toml.
func addExtra(s *project.Structure, group string, pkgs ...string) error {
	d, err := s.Config(PyprojectPath)
	if err != nil {
		return err
	}
	return d.Set(templates.P("project", "optional-dependencies", group), pkgs)
}
