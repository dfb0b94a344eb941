// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/incipyt/incipyt/pkg/templates"
)

const (
	// KindTOML is a configuration tree written as TOML.
	KindTOML Kind = iota + 1
	// KindYAML is a configuration tree written as YAML.
	KindYAML
	// KindLines is an ordered set of unique lines, such as .gitignore.
	KindLines
	// KindText is a text/template body.
	KindText
)

var (
	// ErrKindConflict is returned when two tools use one path for different kinds of file.
	ErrKindConflict = errors.New("file kind conflict")

	// ErrUnknownFormat is returned for a configuration path with no known extension.
	ErrUnknownFormat = errors.New("unknown configuration format")
)

type (
	// Kind is the kind of a file in a Structure.
	Kind int

	// File is one file in a Structure.
	File struct {
		// Path is a slash separated template relative to the project root.
		Path string
		Kind Kind

		dict     *templates.Dict
		lines    []string
		sections []string
	}

	// Structure is the set of files and directories a project is made of.
	Structure struct {
		files map[string]*File
		order []string
		dirs  []string
	}

	// KindConflictError names the path used for two kinds of file.
	KindConflictError struct {
		Path     string
		Existing Kind
		Wanted   Kind
	}
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindTOML:
		return "toml"
	case KindYAML:
		return "yaml"
	case KindLines:
		return "lines"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error implements error.
func (e *KindConflictError) Error() string {
	return fmt.Sprintf("%s: %s is a %s file, cannot use it as %s", ErrKindConflict, e.Path, e.Existing, e.Wanted)
}

// Unwrap returns ErrKindConflict.
func (e *KindConflictError) Unwrap() error {
	return ErrKindConflict
}

// KindFor guesses the configuration kind from a file extension.
func KindFor(p string) (Kind, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".toml":
		return KindTOML, nil
	case ".yaml", ".yml":
		return KindYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, p)
	}
}

// NewStructure creates an empty Structure.
func NewStructure() *Structure {
	return &Structure{files: make(map[string]*File)}
}

// Config returns the configuration tree stored at p, creating it on first use.
// The format is chosen from the extension.
func (s *Structure) Config(p string) (*templates.Dict, error) {
	kind, err := KindFor(p)
	if err != nil {
		return nil, err
	}
	f, err := s.file(p, kind)
	if err != nil {
		return nil, err
	}
	if f.dict == nil {
		f.dict = templates.NewDict(nil)
	}
	return f.dict, nil
}

// Lines appends lines to the line-based file at p, skipping those already present.
func (s *Structure) Lines(p string, lines ...string) error {
	f, err := s.file(p, KindLines)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if !slices.Contains(f.lines, l) {
			f.lines = append(f.lines, l)
		}
	}
	return nil
}

// Text appends a text/template section to the file at p. Identical sections
// are only kept once.
func (s *Structure) Text(p, body string) error {
	f, err := s.file(p, KindText)
	if err != nil {
		return err
	}
	if !slices.Contains(f.sections, body) {
		f.sections = append(f.sections, body)
	}
	return nil
}

// Dir records a directory to create even if no file lands in it.
func (s *Structure) Dir(p string) {
	p = path.Clean(p)
	if !slices.Contains(s.dirs, p) {
		s.dirs = append(s.dirs, p)
	}
}

// Files returns the files in the order they were first added.
func (s *Structure) Files() []*File {
	files := make([]*File, 0, len(s.order))
	for _, p := range s.order {
		files = append(files, s.files[p])
	}
	return files
}

// Dirs returns the recorded directories.
func (s *Structure) Dirs() []string {
	return slices.Clone(s.dirs)
}

// Lookup returns the file at p.
func (s *Structure) Lookup(p string) (*File, bool) {
	f, ok := s.files[path.Clean(p)]
	return f, ok
}

// Dict returns the configuration tree of a TOML or YAML file.
func (f *File) Dict() *templates.Dict {
	return f.dict
}

// Lines returns the lines of a line-based file.
func (f *File) Lines() []string {
	return slices.Clone(f.lines)
}

// Sections returns the template sections of a text file.
func (f *File) Sections() []string {
	return slices.Clone(f.sections)
}

func (s *Structure) file(p string, kind Kind) (*File, error) {
	p = path.Clean(p)
	if f, ok := s.files[p]; ok {
		if f.Kind != kind {
			return nil, &KindConflictError{Path: p, Existing: f.Kind, Wanted: kind}
		}
		return f, nil
	}
	f := &File{Path: p, Kind: kind}
	s.files[p] = f
	s.order = append(s.order, p)
	return f, nil
}
