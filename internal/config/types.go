// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultPythonCommand is the interpreter used when none is configured.
	DefaultPythonCommand = "python3"
	// DefaultRequiresPython is the default requires-python specifier.
	DefaultRequiresPython = ">=3.9"
	// DefaultLicense is the license used when none is configured.
	DefaultLicense = "MIT"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidVarName is returned when a vars key is not an identifier.
	ErrInvalidVarName = errors.New("invalid variable name")
	// ErrInvalidIgnorePattern is returned when an ignore entry is not a valid doublestar pattern.
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")
	// ErrInvalidPythonConfig is the sentinel error wrapped by InvalidPythonConfigError.
	ErrInvalidPythonConfig = errors.New("invalid python config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	varNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidVarNameError reports a vars key that cannot name a template variable.
	InvalidVarNameError struct {
		Name string
	}

	// InvalidIgnorePatternError reports a malformed ignore pattern.
	InvalidIgnorePatternError struct {
		Pattern string
	}

	// InvalidPythonConfigError is returned when the python section is unusable.
	InvalidPythonConfigError struct {
		Reason string
	}

	// InvalidConfigError collects field-level validation errors.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Python configures the interpreter used for generated projects.
		Python PythonConfig `json:"python" mapstructure:"python"`
		// Defaults selects what `incipyt init` does without explicit flags.
		Defaults DefaultsConfig `json:"defaults" mapstructure:"defaults"`
		// Author seeds AUTHOR_NAME and AUTHOR_EMAIL.
		Author AuthorConfig `json:"author" mapstructure:"author"`
		// Vars seeds arbitrary template variables. Keys keep their case.
		Vars map[string]string `json:"vars" mapstructure:"-"`
		// Ignore lists doublestar patterns tolerated in a non-empty target folder.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// PythonConfig configures the interpreter.
	PythonConfig struct {
		// Command is the interpreter used to create the virtual environment.
		Command string `json:"command" mapstructure:"command"`
		// Requires is the default requires-python specifier.
		Requires string `json:"requires" mapstructure:"requires"`
	}

	// DefaultsConfig holds the defaults applied by `incipyt init`.
	DefaultsConfig struct {
		// Tools are enabled when no tool flag is given.
		Tools []string `json:"tools" mapstructure:"tools"`
		// License is the license identifier used by the license tool.
		License string `json:"license" mapstructure:"license"`
		// CLI generates a console entry point.
		CLI bool `json:"cli" mapstructure:"cli"`
	}

	// AuthorConfig identifies the project author.
	AuthorConfig struct {
		Name  string `json:"name" mapstructure:"name"`
		Email string `json:"email" mapstructure:"email"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Theme names the prompt theme.
		Theme string `json:"theme" mapstructure:"theme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// NoInput disables interactive prompts.
		NoInput bool `json:"no_input" mapstructure:"no_input"`
	}
)

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func (e *InvalidVarNameError) Error() string {
	return fmt.Sprintf("invalid variable name %q: must match %s", e.Name, varNameRe)
}

// Unwrap returns ErrInvalidVarName.
func (e *InvalidVarNameError) Unwrap() error { return ErrInvalidVarName }

func (e *InvalidIgnorePatternError) Error() string {
	return fmt.Sprintf("invalid ignore pattern %q", e.Pattern)
}

// Unwrap returns ErrInvalidIgnorePattern.
func (e *InvalidIgnorePatternError) Unwrap() error { return ErrInvalidIgnorePattern }

func (e *InvalidPythonConfigError) Error() string {
	return "invalid python config: " + e.Reason
}

// Unwrap returns ErrInvalidPythonConfig.
func (e *InvalidPythonConfigError) Unwrap() error { return ErrInvalidPythonConfig }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is()
// matches both the config sentinel and each field sentinel.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid reports whether the python section names an interpreter.
func (c PythonConfig) IsValid() (bool, []error) {
	if strings.TrimSpace(c.Command) == "" {
		return false, []error{&InvalidPythonConfigError{Reason: "command must not be empty"}}
	}
	return true, nil
}

// IsValid returns whether the UIConfig has valid fields.
func (c UIConfig) IsValid() (bool, []error) {
	return c.ColorScheme.IsValid()
}

// IsValid checks the constraints the schema cannot express once values come
// from environment overrides as well as the file.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Python.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for name := range c.Vars {
		if !varNameRe.MatchString(name) {
			errs = append(errs, &InvalidVarNameError{Name: name})
		}
	}
	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, &InvalidIgnorePatternError{Pattern: p})
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Python: PythonConfig{
			Command:  DefaultPythonCommand,
			Requires: DefaultRequiresPython,
		},
		Defaults: DefaultsConfig{
			Tools:   []string{"git", "venv", "setuptools"},
			License: DefaultLicense,
		},
		Vars:   map[string]string{},
		Ignore: []string{},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Theme:       "default",
		},
	}
}
