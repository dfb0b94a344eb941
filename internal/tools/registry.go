// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// CategoryProject holds the base project tool, always selected.
	CategoryProject Category = "project"
	// CategoryVCS holds version control tools.
	CategoryVCS Category = "vcs"
	// CategoryEnv holds virtual environment tools.
	CategoryEnv Category = "env"
	// CategoryBuild holds build backends.
	CategoryBuild Category = "build"
	// CategoryLicense holds license tools.
	CategoryLicense Category = "license"
	// CategoryCheck holds test and lint tools.
	CategoryCheck Category = "check"
	// CategoryCI holds continuous integration tools.
	CategoryCI Category = "ci"
)

var (
	// ErrUnknownTool is returned when a tool name is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolConflict is returned when a single-choice category gets more than one tool.
	ErrToolConflict = errors.New("conflicting tools")

	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// categoryOrder is the order tools are applied and hooks run in.
	categoryOrder = []Category{
		CategoryProject, CategoryVCS, CategoryEnv, CategoryBuild,
		CategoryLicense, CategoryCheck, CategoryCI,
	}
)

type (
	// Category groups tools.
	Category string

	// Constructor builds a tool from the user's options.
	Constructor func(opts Options) (Tool, error)

	// Registration describes a named tool.
	Registration struct {
		Name        string
		Category    Category
		Description string
		New         Constructor
	}

	// Registry maps tool names to constructors.
	Registry struct {
		byName map[string]Registration
		order  []string
	}

	// UnknownToolError names the unregistered tool.
	UnknownToolError struct {
		Name  string
		Known []string
	}

	// ToolConflictError names the tools competing for one category.
	ToolConflictError struct {
		Category Category
		Tools    []string
	}
)

// Single reports whether at most one tool of the category may be selected.
func (c Category) Single() bool {
	switch c {
	case CategoryProject, CategoryVCS, CategoryEnv, CategoryBuild, CategoryLicense:
		return true
	default:
		return false
	}
}

// Error implements error.
func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("%s %q (available: %s)", ErrUnknownTool, e.Name, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownTool.
func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }

// Error implements error.
func (e *ToolConflictError) Error() string {
	return fmt.Sprintf("%s: %s accepts a single tool, got %s", ErrToolConflict, e.Category, strings.Join(e.Tools, " and "))
}

// Unwrap returns ErrToolConflict.
func (e *ToolConflictError) Unwrap() error { return ErrToolConflict }

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Registration)}
}

// DefaultRegistry returns a Registry holding every built-in tool.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, reg := range builtins() {
		if err := r.Register(reg); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds reg. Names are case-insensitive.
func (r *Registry) Register(reg Registration) error {
	name := strings.ToLower(reg.Name)
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, reg.Name)
	}
	if !slices.Contains(categoryOrder, reg.Category) {
		return fmt.Errorf("tool %s: unknown category %q", reg.Name, reg.Category)
	}
	reg.Name = name
	r.byName[name] = reg
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the registration for name.
func (r *Registry) Lookup(name string) (Registration, bool) {
	reg, ok := r.byName[strings.ToLower(name)]
	return reg, ok
}

// Registrations returns every registration grouped by category.
func (r *Registry) Registrations() []Registration {
	regs := make([]Registration, 0, len(r.order))
	for _, name := range r.order {
		regs = append(regs, r.byName[name])
	}
	slices.SortStableFunc(regs, func(a, b Registration) int {
		return slices.Index(categoryOrder, a.Category) - slices.Index(categoryOrder, b.Category)
	})
	return regs
}

// Resolve builds the tools named in names, plus every project tool, ordered
// by category. Names may repeat.
func (r *Registry) Resolve(names []string, opts Options) ([]Tool, error) {
	selected := make([]Registration, 0, len(names)+1)
	seen := make(map[string]bool)
	add := func(reg Registration) {
		if !seen[reg.Name] {
			seen[reg.Name] = true
			selected = append(selected, reg)
		}
	}

	for _, name := range r.order {
		if reg := r.byName[name]; reg.Category == CategoryProject {
			add(reg)
		}
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		reg, ok := r.Lookup(name)
		if !ok {
			return nil, &UnknownToolError{Name: name, Known: slices.Clone(r.order)}
		}
		add(reg)
	}

	slices.SortStableFunc(selected, func(a, b Registration) int {
		return slices.Index(categoryOrder, a.Category) - slices.Index(categoryOrder, b.Category)
	})

	perCategory := make(map[Category][]string)
	for _, reg := range selected {
		perCategory[reg.Category] = append(perCategory[reg.Category], reg.Name)
	}
	for _, c := range categoryOrder {
		if got := perCategory[c]; c.Single() && len(got) > 1 {
			return nil, &ToolConflictError{Category: c, Tools: got}
		}
	}

	tools := make([]Tool, 0, len(selected))
	for _, reg := range selected {
		t, err := reg.New(opts)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", reg.Name, err)
		}
		tools = append(tools, t)
	}
	return tools, nil
}

func builtins() []Registration {
	return []Registration{
		{Name: "project", Category: CategoryProject, Description: "Python package skeleton under src/ with pyproject.toml metadata and README.", New: newProject},
		{Name: "git", Category: CategoryVCS, Description: "Git repository with a Python .gitignore.", New: newGit},
		{Name: "venv", Category: CategoryEnv, Description: "Virtual environment in .venv with the project installed in editable mode.", New: newVenv},
		{Name: "setuptools", Category: CategoryBuild, Description: "setuptools build backend with src layout discovery.", New: newSetuptools},
		{Name: "hatch", Category: CategoryBuild, Description: "hatchling build backend.", New: newHatch},
		{Name: "license", Category: CategoryLicense, Description: "LICENSE file and license metadata (MIT, Apache-2.0, GPL-3.0-or-later, BSD-3-Clause).", New: newLicense},
		{Name: "pytest", Category: CategoryCheck, Description: "pytest configuration and a first test.", New: newPytest},
		{Name: "ruff", Category: CategoryCheck, Description: "ruff linter and formatter configuration.", New: newRuff},
		{Name: "pre-commit", Category: CategoryCheck, Description: "pre-commit hooks checking merge conflicts, TOML, YAML and ruff.", New: newPreCommit},
		{Name: "release", Category: CategoryCI, Description: "GitHub workflow publishing releases to PyPI with trusted publishing.", New: newRelease},
	}
}
