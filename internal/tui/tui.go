// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive prompts used while scaffolding a project.
// It wraps charmbracelet/huh forms and falls back to huh's accessible mode
// when stdin is not a terminal.
package tui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

const (
	// ThemeDefault uses the default huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeCatppuccin uses the Catppuccin theme.
	ThemeCatppuccin Theme = "catppuccin"
	// ThemeBase16 uses the Base16 theme.
	ThemeBase16 Theme = "base16"
)

var (
	// ErrInvalidTheme is returned when a Theme is not one of the known themes.
	ErrInvalidTheme = errors.New("invalid theme")

	// ErrCancelled is returned when the user aborts a prompt.
	ErrCancelled = errors.New("prompt cancelled")
)

type (
	// Theme represents the visual theme for prompts.
	Theme string

	// InvalidThemeError carries the rejected theme name.
	InvalidThemeError struct {
		Value Theme
	}

	// Config holds common configuration for prompts.
	Config struct {
		// Theme specifies the visual theme to use.
		Theme Theme
		// Accessible enables accessible mode for screen readers and pipes.
		Accessible bool
		// Output specifies where prompts are written.
		Output io.Writer
		// Input specifies where answers are read from in accessible mode.
		Input io.Reader
	}
)

// String implements fmt.Stringer.
func (t Theme) String() string {
	return string(t)
}

// IsValid returns whether the Theme is one of the known themes.
func (t Theme) IsValid() (bool, []error) {
	switch t {
	case ThemeDefault, ThemeCharm, ThemeDracula, ThemeCatppuccin, ThemeBase16:
		return true, nil
	default:
		return false, []error{&InvalidThemeError{Value: t}}
	}
}

// Error implements the error interface.
func (e *InvalidThemeError) Error() string {
	return fmt.Sprintf("invalid theme %q (expected default, charm, dracula, catppuccin or base16)", e.Value)
}

// Unwrap returns ErrInvalidTheme for errors.Is() compatibility.
func (e *InvalidThemeError) Unwrap() error {
	return ErrInvalidTheme
}

// DefaultConfig returns the default configuration for prompts.
// Accessible mode is enabled when stdin is not a terminal or when the
// ACCESSIBLE environment variable is set. Prompts then go to stderr so
// they stay visible when stdout is redirected.
func DefaultConfig() Config {
	accessible := !IsInputTerminal() || os.Getenv("ACCESSIBLE") != ""

	var output io.Writer = os.Stdout
	if accessible {
		output = os.Stderr
	}

	return Config{
		Theme:      ThemeDefault,
		Accessible: accessible,
		Output:     output,
	}
}

// IsInputTerminal returns true if stdin is connected to a terminal.
func IsInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// getHuhTheme converts a Theme to a huh.Theme.
func getHuhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	case ThemeCatppuccin:
		return huh.ThemeCatppuccin()
	case ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}
