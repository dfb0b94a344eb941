// SPDX-License-Identifier: MPL-2.0

package templates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedTemplate is the sentinel error wrapped by MalformedTemplateError.
var ErrMalformedTemplate = errors.New("malformed template")

type (
	// MalformedTemplateError is returned when a "{FIELD}" template has
	// unbalanced braces or an empty field name.
	MalformedTemplateError struct {
		Template string
		Offset   int
		Reason   string
	}

	// segment is either a literal run of text or a replacement field.
	segment struct {
		text    string
		isField bool
	}
)

// Error implements the error interface.
func (e *MalformedTemplateError) Error() string {
	return fmt.Sprintf("malformed template %q at offset %d: %s", e.Template, e.Offset, e.Reason)
}

// Unwrap returns ErrMalformedTemplate for errors.Is() compatibility.
func (e *MalformedTemplateError) Unwrap() error { return ErrMalformedTemplate }

// parseFormat splits a template into literal and field segments.
// "{{" and "}}" escape literal braces. A format spec or conversion suffix
// ("{NAME:>10}", "{NAME!r}") is accepted and ignored.
func parseFormat(tmpl string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return nil, &MalformedTemplateError{Template: tmpl, Offset: i, Reason: "single '{' encountered"}
			}
			field := tmpl[i+1 : i+1+end]
			if idx := strings.IndexAny(field, ":!"); idx >= 0 {
				field = field[:idx]
			}
			field = strings.TrimSpace(field)
			if field == "" {
				return nil, &MalformedTemplateError{Template: tmpl, Offset: i, Reason: "empty field name"}
			}
			if strings.ContainsRune(field, '{') {
				return nil, &MalformedTemplateError{Template: tmpl, Offset: i, Reason: "unexpected '{' in field name"}
			}
			flush()
			segs = append(segs, segment{text: field, isField: true})
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &MalformedTemplateError{Template: tmpl, Offset: i, Reason: "single '}' encountered"}
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return segs, nil
}

// Fields returns the distinct field names of a template in order of first use.
func Fields(tmpl string) ([]string, error) {
	segs, err := parseFormat(tmpl)
	if err != nil {
		return nil, err
	}
	return fieldNames(segs), nil
}

// HasFields reports whether s contains at least one replacement field.
// Malformed templates report false.
func HasFields(s string) bool {
	fields, err := Fields(s)
	return err == nil && len(fields) > 0
}

func fieldNames(segs []segment) []string {
	var names []string
	seen := make(map[string]bool)
	for _, s := range segs {
		if s.isField && !seen[s.text] {
			seen[s.text] = true
			names = append(names, s.text)
		}
	}
	return names
}

func formatSegments(segs []segment, values map[string]string) string {
	var sb strings.Builder
	for _, s := range segs {
		if s.isField {
			sb.WriteString(values[s.text])
			continue
		}
		sb.WriteString(s.text)
	}
	return sb.String()
}
