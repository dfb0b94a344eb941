// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrInvalidDocument is wrapped by every ValidationError.
	ErrInvalidDocument = errors.New("invalid CUE document")
	// ErrFileTooLarge is returned when a document exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

type (
	// Problem is one failure reported by CUE.
	Problem struct {
		// Path is the JSON path to the field, empty for document level problems.
		Path    string
		Message string
	}

	// ValidationError lists the problems found in one file.
	ValidationError struct {
		File     string
		Problems []Problem
	}

	// FileTooLargeError reports a document over the size limit.
	FileTooLargeError struct {
		File  string
		Size  int64
		Limit int64
	}
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.Path == "" {
			lines = append(lines, p.Message)
			continue
		}
		lines = append(lines, p.Path+": "+p.Message)
	}

	switch len(lines) {
	case 0:
		return e.File + ": invalid document"
	case 1:
		return e.File + ": " + lines[0]
	default:
		return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(lines, "\n  "))
	}
}

// Unwrap returns ErrInvalidDocument for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrInvalidDocument }

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d bytes exceeds maximum %d bytes", e.File, e.Size, e.Limit)
}

// Unwrap returns ErrFileTooLarge for errors.Is() compatibility.
func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// FormatError converts a CUE error into a *ValidationError for file. Errors
// that do not come from CUE are wrapped with the file name.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	verr := &ValidationError{File: file}
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		verr.Problems = append(verr.Problems, Problem{Path: path, Message: msg})
	}
	return verr
}

// formatPath turns ["defaults", "tools", "1"] into "defaults.tools[1]".
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			sb.WriteString("[" + part + "]")
		case i > 0:
			sb.WriteString("." + part)
		default:
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns a *FileTooLargeError when data exceeds maxSize.
func CheckFileSize(data []byte, maxSize int64, file string) error {
	if size := int64(len(data)); size > maxSize {
		return &FileTooLargeError{File: file, Size: size, Limit: maxSize}
	}
	return nil
}
