// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/pkg/templates"
)

type setuptoolsTool struct{}

func newSetuptools(Options) (Tool, error) {
	return setuptoolsTool{}, nil
}

func (setuptoolsTool) Name() string { return "setuptools" }

func (setuptoolsTool) Description() string {
	return "setuptools build backend with src layout discovery."
}

func (setuptoolsTool) AddToStructure(s *project.Structure) error {
	d, err := s.Config(PyprojectPath)
	if err != nil {
		return err
	}
	if err := d.Set(templates.P("build-system"), map[string]any{
		"requires":      []string{"setuptools>=77", "wheel"},
		"build-backend": "setuptools.build_meta",
	}); err != nil {
		return err
	}
	if err := d.Set(templates.P("tool", "setuptools", "packages", "find", "where"), []string{"src"}); err != nil {
		return err
	}
	return addExtra(s, "build", "build")
}

type hatchTool struct{}

func newHatch(Options) (Tool, error) {
	return hatchTool{}, nil
}

func (hatchTool) Name() string { return "hatch" }

func (hatchTool) Description() string { return "hatchling build backend." }

func (hatchTool) AddToStructure(s *project.Structure) error {
	d, err := s.Config(PyprojectPath)
	if err != nil {
		return err
	}
	if err := d.Set(templates.P("build-system"), map[string]any{
		"requires":      []string{"hatchling>=1.27"},
		"build-backend": "hatchling.build",
	}); err != nil {
		return err
	}
	if err := d.Set(templates.P("tool", "hatch", "build", "targets", "wheel", "packages"), []string{"src/{PACKAGE_NAME}"}); err != nil {
		return err
	}
	return addExtra(s, "build", "build")
}
