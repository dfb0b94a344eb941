// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrTargetNotEmpty is returned when the target folder already holds files.
var ErrTargetNotEmpty = errors.New("target folder is not empty")

// DefaultIgnore lists what may already sit in a target folder.
var DefaultIgnore = []string{".git/**", ".idea/**", ".vscode/**", "**/*.swp", ".DS_Store"}

// TargetNotEmptyError names the first entry found in the target folder.
type TargetNotEmptyError struct {
	Root  string
	Entry string
}

// Error implements error.
func (e *TargetNotEmptyError) Error() string {
	return fmt.Sprintf("%s: %s contains %s", ErrTargetNotEmpty, e.Root, e.Entry)
}

// Unwrap returns ErrTargetNotEmpty.
func (e *TargetNotEmptyError) Unwrap() error {
	return ErrTargetNotEmpty
}

// CheckTarget verifies that root is absent or holds nothing but entries matching
// the doublestar patterns in ignore.
func CheckTarget(root string, ignore []string) error {
	for _, p := range ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("target %s is not a directory", root)
	}

	errFound := errors.New("found")
	var found string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ignored(rel, ignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Directories only count through what they contain.
			return nil
		}
		found = rel
		return errFound
	})
	if errors.Is(err, errFound) {
		return &TargetNotEmptyError{Root: root, Entry: found}
	}
	if err != nil {
		return fmt.Errorf("scan target: %w", err)
	}
	return nil
}

func ignored(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
