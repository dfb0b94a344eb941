// SPDX-License-Identifier: MPL-2.0

package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/incipyt/incipyt/pkg/templates"
)

var (
	// ErrUnsafePath is returned when a rendered path leaves the project root.
	ErrUnsafePath = errors.New("path escapes the project root")

	// ErrEmptyPath is returned when a path template renders to nothing.
	ErrEmptyPath = errors.New("path template rendered empty")
)

// RenderedFile is the final content of one file.
type RenderedFile struct {
	// Path is slash separated and relative to the project root.
	Path    string
	Kind    Kind
	Content []byte
}

// Render resolves every file and directory against env. The Structure itself
// is left untouched. Configuration files whose tree is empty after pruning
// and line files with no remaining line are omitted.
func (s *Structure) Render(ctx context.Context, env templates.Environment) ([]RenderedFile, []string, error) {
	dirs := make([]string, 0, len(s.dirs))
	for _, d := range s.dirs {
		rendered, err := renderPath(ctx, env, d)
		if err != nil {
			return nil, nil, err
		}
		if !slices.Contains(dirs, rendered) {
			dirs = append(dirs, rendered)
		}
	}

	files := make([]RenderedFile, 0, len(s.order))
	for _, f := range s.Files() {
		p, err := renderPath(ctx, env, f.Path)
		if err != nil {
			return nil, nil, err
		}

		content, keep, err := f.render(ctx, env)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		if !keep {
			continue
		}
		files = append(files, RenderedFile{Path: p, Kind: f.Kind, Content: content})
	}
	return files, dirs, nil
}

func (f *File) render(ctx context.Context, env templates.Environment) ([]byte, bool, error) {
	switch f.Kind {
	case KindTOML, KindYAML:
		tree := f.dict.Clone().Data()
		if err := templates.Visit(ctx, env, tree); err != nil {
			return nil, false, err
		}
		if len(tree) == 0 {
			return nil, false, nil
		}
		if f.Kind == KindTOML {
			out, err := encodeTOML(tree)
			return out, true, err
		}
		out, err := encodeYAML(tree)
		return out, true, err

	case KindLines:
		lines := make([]string, 0, len(f.lines))
		for _, l := range f.lines {
			rendered, ok, err := renderLine(ctx, env, l)
			if err != nil {
				return nil, false, err
			}
			if ok && !slices.Contains(lines, rendered) {
				lines = append(lines, rendered)
			}
		}
		if len(lines) == 0 {
			return nil, false, nil
		}
		return []byte(strings.Join(lines, "\n") + "\n"), true, nil

	case KindText:
		parts := make([]string, 0, len(f.sections))
		for i, body := range f.sections {
			out, err := templates.RenderText(ctx, env, fmt.Sprintf("%s#%d", f.Path, i), body)
			if err != nil {
				return nil, false, err
			}
			if out = strings.TrimRight(out, "\n"); out != "" {
				parts = append(parts, out)
			}
		}
		if len(parts) == 0 {
			return []byte{}, true, nil
		}
		return []byte(strings.Join(parts, "\n\n") + "\n"), true, nil

	default:
		return nil, false, fmt.Errorf("unsupported file kind %s", f.Kind)
	}
}

func renderLine(ctx context.Context, env templates.Environment, line string) (string, bool, error) {
	if !templates.HasFields(line) {
		return line, line != "", nil
	}
	return templates.RenderString(ctx, env, line, templates.RenderOptions{})
}

func renderPath(ctx context.Context, env templates.Environment, p string) (string, error) {
	rendered := p
	if templates.HasFields(p) {
		out, ok, err := templates.RenderString(ctx, env, p, templates.RenderOptions{})
		if err != nil {
			return "", fmt.Errorf("path %s: %w", p, err)
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrEmptyPath, p)
		}
		rendered = out
	}
	rendered = path.Clean(rendered)
	if !filepath.IsLocal(filepath.FromSlash(rendered)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, rendered)
	}
	return rendered, nil
}

func encodeTOML(tree map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf).SetIndentTables(false)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeYAML(tree map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
