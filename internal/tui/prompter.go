// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/huh"
)

// Prompter asks for variable values and conflict resolutions with huh forms.
type Prompter struct {
	cfg Config
}

// NewPrompter creates a Prompter using cfg.
func NewPrompter(cfg Config) *Prompter {
	if cfg.Theme == "" {
		cfg.Theme = ThemeDefault
	}
	return &Prompter{cfg: cfg}
}

// Input asks for the value of key, pre-filled with def.
func (p *Prompter) Input(ctx context.Context, key, def string) (string, error) {
	value := def
	field := huh.NewInput().
		Title(Label(key)).
		Description(key).
		Value(&value)
	if def != "" {
		field = field.Placeholder(def)
	}

	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Choose asks the user to pick one of options.
func (p *Prompter) Choose(ctx context.Context, title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: no options", title)
	}

	choice := options[0]
	field := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&choice)

	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	return choice, nil
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	answer := def
	field := huh.NewConfirm().
		Title(title).
		Value(&answer)

	if err := p.run(ctx, field); err != nil {
		return false, err
	}
	return answer, nil
}

func (p *Prompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(getHuhTheme(p.cfg.Theme)).
		WithAccessible(p.cfg.Accessible)
	if p.cfg.Output != nil {
		form = form.WithOutput(p.cfg.Output)
	}
	if p.cfg.Input != nil {
		form = form.WithInput(p.cfg.Input)
	}
	return translateError(form.RunWithContext(ctx))
}

// translateError maps huh's abort error to ErrCancelled.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	default:
		return err
	}
}

// Label turns a variable key such as PROJECT_NAME into "Project name".
func Label(key string) string {
	s := strings.ToLower(strings.ReplaceAll(key, "_", " "))
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
