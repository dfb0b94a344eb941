// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/incipyt/incipyt/internal/environ"
	"github.com/incipyt/incipyt/pkg/templates"
)

func testEnv(vars map[string]string) *environ.Environment {
	env := environ.New()
	env.Seed(vars, true)
	return env
}

func mustConfig(t *testing.T, s *Structure, p string) *templates.Dict {
	t.Helper()
	d, err := s.Config(p)
	if err != nil {
		t.Fatalf("Config(%s): %v", p, err)
	}
	return d
}

func mustSet(t *testing.T, d *templates.Dict, path templates.Path, v any) {
	t.Helper()
	if err := d.Set(path, v); err != nil {
		t.Fatalf("Set(%s): %v", path, err)
	}
}

func findFile(t *testing.T, files []RenderedFile, p string) RenderedFile {
	t.Helper()
	for _, f := range files {
		if f.Path == p {
			return f
		}
	}
	t.Fatalf("file %s not rendered", p)
	return RenderedFile{}
}

func TestStructureKindConflict(t *testing.T) {
	t.Parallel()

	s := NewStructure()
	if err := s.Lines(".gitignore", "*.pyc"); err != nil {
		t.Fatal(err)
	}
	err := s.Text(".gitignore", "x")
	var kc *KindConflictError
	if !errors.As(err, &kc) || kc.Existing != KindLines || kc.Wanted != KindText {
		t.Fatalf("Text() over lines error = %v", err)
	}
	if !errors.Is(err, ErrKindConflict) {
		t.Error("should wrap ErrKindConflict")
	}

	if _, err := s.Config("setup.cfg"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Config(setup.cfg) error = %v, want ErrUnknownFormat", err)
	}
}

func TestStructureSameConfigIsShared(t *testing.T) {
	t.Parallel()

	s := NewStructure()
	a := mustConfig(t, s, "pyproject.toml")
	b := mustConfig(t, s, "./pyproject.toml")
	if a != b {
		t.Error("Config() should return the same tree for the same path")
	}
	if n := len(s.Files()); n != 1 {
		t.Errorf("Files() has %d entries, want 1", n)
	}
}

func TestRenderTOML(t *testing.T) {
	t.Parallel()

	s := NewStructure()
	d := mustConfig(t, s, "pyproject.toml")
	mustSet(t, d, templates.P("build-system"), map[string]any{
		"requires":      []string{"setuptools>=61"},
		"build-backend": "setuptools.build_meta",
	})
	mustSet(t, d, templates.P("project", "name"), "{PROJECT_NAME}")
	mustSet(t, d, templates.P("project", "description"), "{DESCRIPTION}")
	mustSet(t, d, templates.P("project", "authors"), []any{
		map[string]any{"name": "{AUTHOR_NAME}", "email": "{AUTHOR_EMAIL}"},
	})

	env := testEnv(map[string]string{
		"PROJECT_NAME": "demo",
		"DESCRIPTION":  "",
		"AUTHOR_NAME":  "Ada",
		"AUTHOR_EMAIL": "",
	})
	files, _, err := s.Render(t.Context(), env)
	if err != nil {
		t.Fatal(err)
	}
	f := findFile(t, files, "pyproject.toml")

	var got struct {
		BuildSystem struct {
			Requires     []string `toml:"requires"`
			BuildBackend string   `toml:"build-backend"`
		} `toml:"build-system"`
		Project map[string]any `toml:"project"`
	}
	if err := toml.Unmarshal(f.Content, &got); err != nil {
		t.Fatalf("rendered TOML does not parse: %v\n%s", err, f.Content)
	}
	if got.BuildSystem.BuildBackend != "setuptools.build_meta" || len(got.BuildSystem.Requires) != 1 {
		t.Errorf("build-system = %+v", got.BuildSystem)
	}
	if got.Project["name"] != "demo" {
		t.Errorf("project.name = %v", got.Project["name"])
	}
	if _, ok := got.Project["description"]; ok {
		t.Error("empty description should be pruned")
	}
	authors, _ := got.Project["authors"].([]any)
	if len(authors) != 1 {
		t.Fatalf("authors = %v", got.Project["authors"])
	}
	if a := authors[0].(map[string]any); a["name"] != "Ada" || a["email"] != nil {
		t.Errorf("author = %v", a)
	}

	// The structure tree itself keeps its templates.
	if v, _ := d.Get(templates.P("project", "name")); v == "demo" {
		t.Error("Render() should not resolve the structure in place")
	}
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	s := NewStructure()
	d := mustConfig(t, s, ".github/workflows/ci.yml")
	mustSet(t, d, templates.P("name"), "CI")
	mustSet(t, d, templates.P("jobs", "test", "runs-on"), "ubuntu-latest")
	mustSet(t, d, templates.P("jobs", "test", "steps"), []any{
		map[string]any{"uses": "actions/checkout@v4"},
		map[string]any{"run": "{PYTHON_CMD} -m pytest"},
	})

	files, _, err := s.Render(t.Context(), testEnv(map[string]string{"PYTHON_CMD": "python"}))
	if err != nil {
		t.Fatal(err)
	}
	f := findFile(t, files, ".github/workflows/ci.yml")

	var got map[string]any
	if err := yaml.Unmarshal(f.Content, &got); err != nil {
		t.Fatalf("rendered YAML does not parse: %v\n%s", err, f.Content)
	}
	steps := got["jobs"].(map[string]any)["test"].(map[string]any)["steps"].([]any)
	if run := steps[1].(map[string]any)["run"]; run != "python -m pytest" {
		t.Errorf("steps[1].run = %v", run)
	}
}

func TestRenderLinesAndText(t *testing.T) {
	t.Parallel()

	s := NewStructure()
	if err := s.Lines(".gitignore", "__pycache__/", "{VENV}/", "{MISSING_OK}"); err != nil {
		t.Fatal(err)
	}
	if err := s.Lines(".gitignore", "__pycache__/", "dist/"); err != nil {
		t.Fatal(err)
	}
	if err := s.Text("src/{PACKAGE_NAME}/__init__.py", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Text("README.md", "# {{ env \"PROJECT_NAME\" }}\n"); err != nil {
		t.Fatal(err)
	}
	if err := s.Text("README.md", "## Install\n\n    pip install {{ env \"PROJECT_NAME\" }}\n"); err != nil {
		t.Fatal(err)
	}
	s.Dir("tests")

	env := testEnv(map[string]string{
		"VENV": ".venv", "MISSING_OK": "", "PACKAGE_NAME": "demo", "PROJECT_NAME": "demo",
	})
	files, dirs, err := s.Render(t.Context(), env)
	if err != nil {
		t.Fatal(err)
	}

	if got := string(findFile(t, files, ".gitignore").Content); got != "__pycache__/\n.venv/\ndist/\n" {
		t.Errorf(".gitignore = %q", got)
	}
	if got := findFile(t, files, "src/demo/__init__.py").Content; len(got) != 0 {
		t.Errorf("__init__.py = %q, want empty", got)
	}
	wantReadme := "# demo\n\n## Install\n\n    pip install demo\n"
	if got := string(findFile(t, files, "README.md").Content); got != wantReadme {
		t.Errorf("README.md = %q, want %q", got, wantReadme)
	}
	if len(dirs) != 1 || dirs[0] != "tests" {
		t.Errorf("dirs = %v", dirs)
	}
}

func TestRenderPathErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		vars map[string]string
		want error
	}{
		{name: "escapes root", path: "../{NAME}.txt", vars: map[string]string{"NAME": "x"}, want: ErrUnsafePath},
		{name: "absolute", path: "/{NAME}", vars: map[string]string{"NAME": "etc"}, want: ErrUnsafePath},
		{name: "empty field", path: "{NAME}", vars: map[string]string{"NAME": ""}, want: ErrEmptyPath},
		{name: "missing", path: "{NAME}", want: environ.ErrMissingVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewStructure()
			if err := s.Text(tt.path, "x"); err != nil {
				t.Fatal(err)
			}
			_, _, err := s.Render(t.Context(), testEnv(tt.vars))
			if !errors.Is(err, tt.want) {
				t.Errorf("Render() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCommit(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "demo")
	env := testEnv(map[string]string{"PACKAGE_NAME": "demo"})

	s := NewStructure()
	if err := s.Text("src/{PACKAGE_NAME}/__init__.py", "__version__ = \"0.1.0\"\n"); err != nil {
		t.Fatal(err)
	}
	s.Dir("tests")

	plan, err := s.Commit(t.Context(), root, env, CommitOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Count(StatusPlanned) != 1 {
		t.Errorf("dry run planned %d files", plan.Count(StatusPlanned))
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatal("dry run touched the filesystem")
	}

	report, err := s.Commit(t.Context(), root, env, CommitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Count(StatusCreated) != 1 {
		t.Errorf("created %d files, want 1", report.Count(StatusCreated))
	}
	initPath := filepath.Join(root, "src", "demo", "__init__.py")
	data, err := os.ReadFile(initPath)
	if err != nil || !strings.Contains(string(data), "0.1.0") {
		t.Fatalf("__init__.py = %q, %v", data, err)
	}
	if info, err := os.Stat(filepath.Join(root, "tests")); err != nil || !info.IsDir() {
		t.Errorf("tests directory missing: %v", err)
	}

	if err := os.WriteFile(initPath, []byte("edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	report, err = s.Commit(t.Context(), root, env, CommitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Count(StatusSkipped) != 1 {
		t.Error("existing file should be skipped without Force")
	}
	if data, _ := os.ReadFile(initPath); string(data) != "edited\n" {
		t.Error("existing file overwritten without Force")
	}

	report, err = s.Commit(t.Context(), root, env, CommitOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.Count(StatusOverwritten) != 1 {
		t.Error("Force should overwrite")
	}
}

func TestCheckTarget(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, root, rel string) {
		t.Helper()
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		if err := CheckTarget(filepath.Join(t.TempDir(), "new"), DefaultIgnore); err != nil {
			t.Errorf("CheckTarget() = %v", err)
		}
	})

	t.Run("only ignored entries", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		write(t, root, ".git/config")
		write(t, root, ".vscode/settings.json")
		write(t, root, "notes/.draft.swp")
		if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := CheckTarget(root, DefaultIgnore); err != nil {
			t.Errorf("CheckTarget() = %v", err)
		}
	})

	t.Run("not empty", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		write(t, root, ".git/config")
		write(t, root, "src/main.py")
		err := CheckTarget(root, DefaultIgnore)
		var te *TargetNotEmptyError
		if !errors.As(err, &te) || te.Entry != "src/main.py" {
			t.Fatalf("CheckTarget() = %v", err)
		}
		if !errors.Is(err, ErrTargetNotEmpty) {
			t.Error("should wrap ErrTargetNotEmpty")
		}
	})

	t.Run("bad pattern", func(t *testing.T) {
		t.Parallel()
		if err := CheckTarget(t.TempDir(), []string{"[unclosed"}); err == nil {
			t.Error("invalid pattern should be rejected")
		}
	})

	t.Run("file target", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		write(t, root, "file")
		if err := CheckTarget(filepath.Join(root, "file"), nil); err == nil {
			t.Error("a regular file is not a valid target")
		}
	})
}
