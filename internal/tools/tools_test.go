// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/incipyt/incipyt/internal/environ"
	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/internal/runner"
)

type pyproject struct {
	BuildSystem struct {
		Requires     []string `toml:"requires"`
		BuildBackend string   `toml:"build-backend"`
	} `toml:"build-system"`
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		Description          string              `toml:"description"`
		License              string              `toml:"license"`
		RequiresPython       string              `toml:"requires-python"`
		Classifiers          []string            `toml:"classifiers"`
		Scripts              map[string]string   `toml:"scripts"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		Authors              []map[string]string `toml:"authors"`
	} `toml:"project"`
	Tool map[string]any `toml:"tool"`
}

func defaultVars() map[string]string {
	return map[string]string{
		"PROJECT_NAME":    "my-project",
		"PACKAGE_NAME":    "my_project",
		"DESCRIPTION":     "",
		"REQUIRES_PYTHON": ">=3.9",
		"AUTHOR_NAME":     "Ada Lovelace",
		"AUTHOR_EMAIL":    "ada@example.com",
		"YEAR":            "2026",
		"PYTHON_CMD":      "python3",
	}
}

func buildStructure(t *testing.T, names []string, opts Options) (*project.Structure, []Tool) {
	t.Helper()
	ts, err := DefaultRegistry().Resolve(names, opts)
	if err != nil {
		t.Fatal(err)
	}
	s := project.NewStructure()
	for _, tool := range ts {
		if err := tool.AddToStructure(s); err != nil {
			t.Fatalf("%s.AddToStructure(): %v", tool.Name(), err)
		}
	}
	return s, ts
}

func renderAll(t *testing.T, s *project.Structure, vars map[string]string) map[string]string {
	t.Helper()
	env := environ.New()
	env.Seed(vars, true)
	files, _, err := s.Render(t.Context(), env)
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = string(f.Content)
	}
	return out
}

func TestAllToolsRenderValidFiles(t *testing.T) {
	t.Parallel()

	s, _ := buildStructure(t,
		[]string{"git", "venv", "setuptools", "license", "pytest", "ruff", "pre-commit", "release"},
		Options{CLI: true, License: "apache-2.0"})
	files := renderAll(t, s, defaultVars())

	for _, want := range []string{
		"pyproject.toml", "README.md", "LICENSE", ".gitignore",
		"src/my_project/__init__.py", "src/my_project/__main__.py",
		"tests/test_my_project.py", ".pre-commit-config.yaml", ReleaseWorkflowPath,
	} {
		if _, ok := files[want]; !ok {
			t.Errorf("missing %s", want)
		}
	}

	for p, content := range files {
		if strings.Contains(content, "MultipleValues") || strings.Contains(content, "<<<<<<<") {
			t.Errorf("%s contains unresolved content:\n%s", p, content)
		}
	}

	var pp pyproject
	if err := toml.Unmarshal([]byte(files["pyproject.toml"]), &pp); err != nil {
		t.Fatalf("pyproject.toml does not parse: %v\n%s", err, files["pyproject.toml"])
	}
	if pp.Project.Name != "my-project" || pp.Project.Version != "0.0.1" || pp.Project.License != "Apache-2.0" {
		t.Errorf("project = %+v", pp.Project)
	}
	if pp.Project.Description != "" {
		t.Error("empty description should be omitted")
	}
	if pp.BuildSystem.BuildBackend != "setuptools.build_meta" {
		t.Errorf("build-backend = %q", pp.BuildSystem.BuildBackend)
	}
	if got := pp.Project.Scripts["my-project"]; got != "my_project.__main__:main" {
		t.Errorf("scripts = %v", pp.Project.Scripts)
	}
	if !slices.Contains(pp.Project.Classifiers, "Environment :: Console") {
		t.Errorf("classifiers = %v", pp.Project.Classifiers)
	}
	for _, c := range pp.Project.Classifiers {
		if strings.HasPrefix(c, "License ::") {
			t.Errorf("license expression must not be paired with classifier %q", c)
		}
	}
	if dev := pp.Project.OptionalDependencies["dev"]; !slices.Equal(dev, []string{"ruff", "pre-commit"}) {
		t.Errorf("dev extras = %v", dev)
	}
	if len(pp.Project.Authors) != 1 || pp.Project.Authors[0]["email"] != "ada@example.com" {
		t.Errorf("authors = %v", pp.Project.Authors)
	}

	var workflow map[string]any
	if err := yaml.Unmarshal([]byte(files[ReleaseWorkflowPath]), &workflow); err != nil {
		t.Fatalf("release workflow does not parse: %v", err)
	}
	if _, ok := workflow["jobs"].(map[string]any)["publish"]; !ok {
		t.Errorf("workflow = %v", workflow)
	}

	var preCommit struct {
		Repos []struct {
			Repo  string `yaml:"repo"`
			Hooks []struct {
				ID string `yaml:"id"`
			} `yaml:"hooks"`
		} `yaml:"repos"`
	}
	if err := yaml.Unmarshal([]byte(files[".pre-commit-config.yaml"]), &preCommit); err != nil {
		t.Fatalf("pre-commit config does not parse: %v", err)
	}
	if len(preCommit.Repos) != 2 || preCommit.Repos[0].Hooks[0].ID != "check-merge-conflict" {
		t.Errorf("pre-commit config = %+v", preCommit)
	}

	if !strings.Contains(files["LICENSE"], "Copyright 2026 Ada Lovelace") {
		t.Errorf("LICENSE = %q", files["LICENSE"])
	}
	if !strings.Contains(files[".gitignore"], ".venv/") {
		t.Error(".gitignore should ignore the virtual environment")
	}
}

func TestHatchTool(t *testing.T) {
	t.Parallel()

	s, _ := buildStructure(t, []string{"hatch"}, Options{})
	files := renderAll(t, s, defaultVars())

	var pp pyproject
	if err := toml.Unmarshal([]byte(files["pyproject.toml"]), &pp); err != nil {
		t.Fatal(err)
	}
	if pp.BuildSystem.BuildBackend != "hatchling.build" {
		t.Errorf("build-backend = %q", pp.BuildSystem.BuildBackend)
	}
	if !strings.Contains(files["pyproject.toml"], "src/my_project") {
		t.Errorf("wheel packages not rendered:\n%s", files["pyproject.toml"])
	}
}

// A PEP 639 license expression needs setuptools>=77 or hatchling>=1.27.
func TestBuildBackendsAcceptLicenseExpression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		build   string
		require string
		backend string
	}{
		{build: "setuptools", require: "setuptools>=77", backend: "setuptools.build_meta"},
		{build: "hatch", require: "hatchling>=1.27", backend: "hatchling.build"},
	}

	for _, tt := range tests {
		t.Run(tt.build, func(t *testing.T) {
			t.Parallel()

			s, _ := buildStructure(t, []string{tt.build, "license"}, Options{License: "MIT"})
			files := renderAll(t, s, defaultVars())

			var pp pyproject
			if err := toml.Unmarshal([]byte(files["pyproject.toml"]), &pp); err != nil {
				t.Fatalf("pyproject.toml does not parse: %v", err)
			}
			if pp.Project.License != "MIT" {
				t.Errorf("license = %q, want MIT", pp.Project.License)
			}
			if pp.BuildSystem.BuildBackend != tt.backend || !slices.Contains(pp.BuildSystem.Requires, tt.require) {
				t.Errorf("build-system = %+v, want %s requiring %s", pp.BuildSystem, tt.backend, tt.require)
			}
			for _, c := range pp.Project.Classifiers {
				if strings.HasPrefix(c, "License ::") {
					t.Errorf("unexpected classifier %q", c)
				}
			}
		})
	}
}

func TestWorkspaceCommand(t *testing.T) {
	t.Parallel()

	env := environ.New()
	env.Seed(map[string]string{"PYTHON_CMD": "python3", "EMPTY": ""}, true)
	ws := &Workspace{Root: "/tmp/demo", Env: env, Runner: &runner.DryRunner{}}

	cmd, err := ws.Command(t.Context(), "{PYTHON_CMD}", "-m", "venv", ".venv")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Name != "python3" || !slices.Equal(cmd.Args, []string{"-m", "venv", ".venv"}) || cmd.Dir != "/tmp/demo" {
		t.Errorf("Command() = %+v", cmd)
	}

	if _, err := ws.Command(t.Context(), "{EMPTY}"); !errors.Is(err, ErrEmptyArgument) {
		t.Errorf("Command({EMPTY}) error = %v", err)
	}
	if _, err := ws.Command(t.Context()); err == nil {
		t.Error("Command() with no args should fail")
	}
}

func TestHooks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, ts := buildStructure(t, []string{"git", "venv", "pytest", "pre-commit"}, Options{})

	env := environ.New()
	env.Seed(defaultVars(), true)
	dry := &runner.DryRunner{}
	ws := &Workspace{Root: root, Repository: true, Env: env, Runner: dry}

	for _, tool := range ts {
		if h, ok := tool.(PreHook); ok {
			if err := h.Pre(t.Context(), ws); err != nil {
				t.Fatalf("%s.Pre(): %v", tool.Name(), err)
			}
		}
	}
	if _, err := s.Commit(t.Context(), root, env, project.CommitOptions{}); err != nil {
		t.Fatal(err)
	}
	for _, tool := range ts {
		if h, ok := tool.(PostHook); ok {
			if err := h.Post(t.Context(), ws); err != nil {
				t.Fatalf("%s.Post(): %v", tool.Name(), err)
			}
		}
	}

	venvPython := VenvPython(root)
	want := []string{
		"git init --quiet",
		"python3 -m venv .venv",
		"git add --all",
		runner.Command{Name: venvPython, Args: []string{"-m", "pip", "install", "--quiet", "--editable", ".[dev,test]"}}.String(),
		runner.Command{Name: venvPython, Args: []string{"-m", "pre_commit", "install"}}.String(),
	}
	var got []string
	for _, c := range dry.Commands() {
		got = append(got, c.String())
	}
	// The dry runner never creates .git; the workspace still plans pre-commit install.
	if !slices.Equal(got, want) {
		t.Errorf("commands =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	if v, _ := env.Lookup("PYTHON_CMD"); v.Value != venvPython {
		t.Errorf("PYTHON_CMD = %q, want %q", v.Value, venvPython)
	}
}

func TestPreCommitInstall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		repository bool
		want       []string
	}{
		{name: "repository", repository: true, want: []string{"python3 -m pre_commit install"}},
		{name: "no repository", repository: false, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := environ.New()
			env.Seed(defaultVars(), true)
			dry := &runner.DryRunner{}
			ws := &Workspace{Root: t.TempDir(), Repository: tt.repository, Env: env, Runner: dry}

			if err := (preCommitTool{}).Post(t.Context(), ws); err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, c := range dry.Commands() {
				got = append(got, c.String())
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("commands = %v, want %v", got, tt.want)
			}
		})
	}
}

type identityRunner struct {
	values map[string]string
}

func (r identityRunner) Run(context.Context, runner.Command) error { return nil }

func (r identityRunner) Output(_ context.Context, cmd runner.Command) (string, error) {
	key := cmd.Args[len(cmd.Args)-1]
	if v, ok := r.values[key]; ok {
		return v, nil
	}
	return "", &runner.ExitError{Command: cmd, Code: 1}
}

func TestGitIdentity(t *testing.T) {
	t.Parallel()

	got := GitIdentity(t.Context(), identityRunner{values: map[string]string{"user.name": "Ada"}})
	if got["AUTHOR_NAME"] != "Ada" {
		t.Errorf("AUTHOR_NAME = %q", got["AUTHOR_NAME"])
	}
	if _, ok := got["AUTHOR_EMAIL"]; ok {
		t.Error("missing user.email should not be reported")
	}
}
