// SPDX-License-Identifier: MPL-2.0

// Package pyname normalizes names for Python distributions and import packages.
package pyname

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// projectNameRegex is the PEP 508 distribution name grammar.
	projectNameRegex = regexp.MustCompile(`(?i)^([A-Z0-9]|[A-Z0-9][A-Z0-9._-]*[A-Z0-9])$`)

	nonIdentifierChars = regexp.MustCompile(`[^a-z0-9_]+`)
	separatorRuns      = regexp.MustCompile(`[-_.\s]+`)
	nonProjectChars    = regexp.MustCompile(`[^a-z0-9._\s-]+`)

	keywords = map[string]bool{
		"false": true, "none": true, "true": true, "and": true, "as": true, "assert": true,
		"async": true, "await": true, "break": true, "class": true, "continue": true,
		"def": true, "del": true, "elif": true, "else": true, "except": true,
		"finally": true, "for": true, "from": true, "global": true, "if": true,
		"import": true, "in": true, "is": true, "lambda": true, "nonlocal": true,
		"not": true, "or": true, "pass": true, "raise": true, "return": true,
		"try": true, "while": true, "with": true, "yield": true,
	}
)

// fold strips combining marks so that "Café" becomes "Cafe".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ProjectName returns the PEP 503 normalized form of a distribution name:
// lowercase ASCII, with runs of separators collapsed to a single "-".
func ProjectName(name string) string {
	s := strings.ToLower(fold(strings.TrimSpace(name)))
	// Drop other characters first so separators around them still merge.
	s = nonProjectChars.ReplaceAllString(s, "")
	s = separatorRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValidProjectName reports whether name satisfies the PEP 508 grammar.
func IsValidProjectName(name string) bool {
	return projectNameRegex.MatchString(name)
}

// PackageName derives an importable module name from a project name.
// Digits cannot lead and keywords get a trailing underscore.
func PackageName(name string) string {
	s := strings.ToLower(fold(strings.TrimSpace(name)))
	s = nonIdentifierChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return ""
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	if keywords[s] {
		s += "_"
	}
	return s
}

// SanitizeProject is a templates.Sanitizer normalizing distribution names.
func SanitizeProject(_, value string) string {
	return ProjectName(value)
}

// SanitizePackage is a templates.Sanitizer producing importable names.
func SanitizePackage(_, value string) string {
	return PackageName(value)
}
