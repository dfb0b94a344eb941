// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/incipyt/incipyt/internal/project"
	"github.com/incipyt/incipyt/pkg/templates"
)

// DefaultLicense is used when no license is named.
const DefaultLicense = "MIT"

var (
	// ErrUnknownLicense is returned for a license without a bundled text.
	ErrUnknownLicense = errors.New("unknown license")

	//go:embed licenses/*.tmpl
	licenseFS embed.FS

	// supportedLicenses are the SPDX identifiers with a bundled text, sorted.
	supportedLicenses = []string{"Apache-2.0", "BSD-3-Clause", "GPL-3.0-or-later", "MIT"}
)

type licenseTool struct {
	id   string
	text string
}

// Licenses returns the supported SPDX identifiers.
func Licenses() []string {
	return slices.Clone(supportedLicenses)
}

// CanonicalLicense matches id case-insensitively against the supported identifiers.
func CanonicalLicense(id string) (string, error) {
	for _, known := range Licenses() {
		if strings.EqualFold(known, strings.TrimSpace(id)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownLicense, id, strings.Join(Licenses(), ", "))
}

func newLicense(opts Options) (Tool, error) {
	name := opts.License
	if name == "" {
		name = DefaultLicense
	}
	id, err := CanonicalLicense(name)
	if err != nil {
		return nil, err
	}
	text, err := licenseFS.ReadFile("licenses/" + id + ".tmpl")
	if err != nil {
		return nil, fmt.Errorf("read license %s: %w", id, err)
	}
	return &licenseTool{id: id, text: string(text)}, nil
}

func (t *licenseTool) Name() string { return "license" }

func (t *licenseTool) Description() string {
	return "LICENSE file and license metadata (" + t.id + ")."
}

func (t *licenseTool) AddToStructure(s *project.Structure) error {
	if err := s.Text("LICENSE", t.text); err != nil {
		return err
	}
	d, err := s.Config(PyprojectPath)
	if err != nil {
		return err
	}
	// PEP 639 license expression. Backends that accept it reject License
	// classifiers next to it, so none are added. The identifier is literal,
	// not a template.
	return d.Set(templates.P("project", "license"), templates.Raw(t.id))
}
