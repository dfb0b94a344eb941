// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/incipyt/incipyt/pkg/templates"
)

const (
	// StatusPlanned marks a file rendered during a dry run.
	StatusPlanned Status = iota
	// StatusCreated marks a new file.
	StatusCreated
	// StatusOverwritten marks an existing file replaced because of Force.
	StatusOverwritten
	// StatusSkipped marks an existing file left alone.
	StatusSkipped
)

type (
	// Status is what Commit did with a file.
	Status int

	// CommitOptions controls how a Structure is written.
	CommitOptions struct {
		// Force overwrites existing files.
		Force bool
		// DryRun renders everything without touching the filesystem.
		DryRun bool
	}

	// FileResult is the outcome for one file.
	FileResult struct {
		RenderedFile
		Status Status
	}

	// Report summarizes a Commit.
	Report struct {
		Root  string
		Dirs  []string
		Files []FileResult
	}
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusPlanned:
		return "planned"
	case StatusCreated:
		return "created"
	case StatusOverwritten:
		return "overwritten"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Count returns how many files ended with status st.
func (r *Report) Count(st Status) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == st {
			n++
		}
	}
	return n
}

// Commit renders the Structure against env and writes it under root.
func (s *Structure) Commit(ctx context.Context, root string, env templates.Environment, opts CommitOptions) (*Report, error) {
	files, dirs, err := s.Render(ctx, env)
	if err != nil {
		return nil, err
	}
	return Write(root, files, dirs, opts)
}

// Write stores already rendered files and directories under root. Callers
// that must gather every answer before running side effects render first and
// write later.
func Write(root string, files []RenderedFile, dirs []string, opts CommitOptions) (*Report, error) {
	report := &Report{Root: root, Dirs: dirs, Files: make([]FileResult, 0, len(files))}
	if opts.DryRun {
		for _, f := range files {
			report.Files = append(report.Files, FileResult{RenderedFile: f, Status: StatusPlanned})
		}
		return report, nil
	}

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755); err != nil {
			return report, fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	for _, f := range files {
		st, err := writeFile(root, f, opts.Force)
		if err != nil {
			return report, err
		}
		slog.Debug("file committed", "path", f.Path, "status", st)
		report.Files = append(report.Files, FileResult{RenderedFile: f, Status: st})
	}
	return report, nil
}

func writeFile(root string, f RenderedFile, force bool) (Status, error) {
	target := filepath.Join(root, filepath.FromSlash(f.Path))

	st := StatusCreated
	info, err := os.Lstat(target)
	switch {
	case err == nil && info.IsDir():
		return 0, fmt.Errorf("write %s: is a directory", f.Path)
	case err == nil && !force:
		return StatusSkipped, nil
	case err == nil:
		st = StatusOverwritten
	case !errors.Is(err, fs.ErrNotExist):
		return 0, fmt.Errorf("stat %s: %w", f.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("create directory for %s: %w", f.Path, err)
	}
	if err := os.WriteFile(target, f.Content, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", f.Path, err)
	}
	return st, nil
}
