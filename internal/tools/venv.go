// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/pkg/templates"
)

// VenvDir is the virtual environment folder, relative to the project root.
const VenvDir = ".venv"

type venvTool struct {
	python templates.PythonEnv
	// structure is read in Post for the optional dependency groups.
	structure *project.Structure
}

func newVenv(Options) (Tool, error) {
	return &venvTool{}, nil
}

func (t *venvTool) Name() string { return "venv" }

func (t *venvTool) Description() string {
	return "Virtual environment in .venv with the project installed in editable mode."
}

func (t *venvTool) Executables() []string {
	return []string{"{" + t.python.Name() + "}"}
}

func (t *venvTool) AddToStructure(s *project.Structure) error {
	t.structure = s
	return s.Lines(".gitignore", VenvDir+"/")
}

// Pre creates the environment and points the Python variable at its interpreter.
func (t *venvTool) Pre(ctx context.Context, ws *Workspace) error {
	if err := ws.Exec(ctx, "{"+t.python.Name()+"}", "-m", "venv", VenvDir); err != nil {
		return fmt.Errorf("create virtual environment: %w", err)
	}
	ws.Env.Replace(t.python.Name(), VenvPython(ws.Root))
	return nil
}

// Post installs the project and its optional dependencies in editable mode.
func (t *venvTool) Post(ctx context.Context, ws *Workspace) error {
	target := "." + t.extras()
	return ws.Exec(ctx, "{"+t.python.Name()+"}", "-m", "pip", "install", "--quiet", "--editable", target)
}

func (t *venvTool) extras() string {
	if t.structure == nil {
		return ""
	}
	f, ok := t.structure.Lookup(PyprojectPath)
	if !ok || f.Dict() == nil {
		return ""
	}
	v, ok := f.Dict().Get(templates.P("project", "optional-dependencies"))
	groups, isMap := v.(map[string]any)
	if !ok || !isMap || len(groups) == 0 {
		return ""
	}
	extras := maps.Keys(groups)
	slices.Sort(extras)
	return "[" + strings.Join(extras, ",") + "]"
}

// VenvPython returns the interpreter path inside the virtual environment of root.
func VenvPython(root string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(root, VenvDir, "Scripts", "python.exe")
	}
	return filepath.Join(root, VenvDir, "bin", "python")
}
