// SPDX-License-Identifier: MPL-2.0

// Package environ holds the variables a project is rendered with.
//
// Every variable is either confirmed (the user or a trusted source settled it)
// or unconfirmed (a guess such as a config default or the git identity).
// Unconfirmed values are offered as prompt defaults when a Prompter is
// attached and accepted silently otherwise.
package environ

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/incipyt/incipyt/pkg/templates"
)

// OSVarPrefix marks OS environment variables that seed the environment.
const OSVarPrefix = "INCIPYT_VAR_"

var (
	// ErrMissingVariable is returned when a variable has no value and nobody can be asked.
	ErrMissingVariable = errors.New("missing variable")

	// ErrInvalidAssignment is returned for a KEY=VALUE assignment that cannot be parsed.
	ErrInvalidAssignment = errors.New("invalid variable assignment")

	_ templates.Environment = (*Environment)(nil)
)

type (
	// Value is a variable value and whether it is settled.
	Value struct {
		Value     string
		Confirmed bool
	}

	// Entry is one variable in a Snapshot.
	Entry struct {
		Key string
		Value
	}

	// Prompter asks the user for values.
	Prompter interface {
		// Input asks for key, pre-filled with def.
		Input(ctx context.Context, key, def string) (string, error)
		// Choose asks the user to pick one of options.
		Choose(ctx context.Context, title string, options []string) (string, error)
	}

	// Option configures an Environment.
	Option func(*Environment)

	// Environment is a concurrency-safe variable store implementing templates.Environment.
	Environment struct {
		mu       sync.Mutex
		vars     map[string]Value
		prompter Prompter
		logger   *slog.Logger
	}

	// MissingVariableError names the variable that could not be resolved.
	MissingVariableError struct {
		Key string
	}
)

// Error implements error.
func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingVariable, e.Key)
}

// Unwrap returns ErrMissingVariable.
func (e *MissingVariableError) Unwrap() error {
	return ErrMissingVariable
}

// WithPrompter makes the environment interactive.
func WithPrompter(p Prompter) Option {
	return func(e *Environment) {
		e.prompter = p
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Environment) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an empty Environment. Without WithPrompter it never asks anything.
func New(opts ...Option) *Environment {
	e := &Environment{
		vars:   make(map[string]Value),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Interactive reports whether a Prompter is attached.
func (e *Environment) Interactive() bool {
	return e.prompter != nil
}

// Push stores value for key unless a confirmed value is already present.
func (e *Environment) Push(key, value string, confirmed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cur, ok := e.vars[key]; ok && cur.Confirmed {
		return
	}
	e.vars[key] = Value{Value: value, Confirmed: confirmed}
}

// Replace stores value for key as confirmed, whatever was there before.
func (e *Environment) Replace(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.vars[key] = Value{Value: value, Confirmed: true}
}

// Lookup returns the stored value for key without prompting.
func (e *Environment) Lookup(key string) (Value, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.vars[key]
	return v, ok
}

// Pull returns the value of key. Unsettled values are asked about when the
// environment is interactive. The returned value is confirmed from then on.
func (e *Environment) Pull(ctx context.Context, key string) (string, error) {
	cur, ok := e.Lookup(key)
	if ok && cur.Confirmed {
		return cur.Value, nil
	}

	if e.prompter == nil {
		if !ok {
			return "", &MissingVariableError{Key: key}
		}
		e.confirm(key, cur.Value)
		return cur.Value, nil
	}

	value, err := e.prompter.Input(ctx, key, cur.Value)
	if err != nil {
		return "", fmt.Errorf("prompt for %s: %w", key, err)
	}
	e.confirm(key, value)
	return value, nil
}

// Choose asks the user to pick one of options. A non-interactive environment
// picks the first option.
func (e *Environment) Choose(ctx context.Context, title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: no options", title)
	}
	if e.prompter == nil {
		e.logger.Warn("non-interactive, using first option", "title", title, "choice", options[0], "options", options)
		return options[0], nil
	}
	choice, err := e.prompter.Choose(ctx, title, options)
	if err != nil {
		return "", fmt.Errorf("choose %q: %w", title, err)
	}
	return choice, nil
}

// Snapshot returns every variable sorted by key.
func (e *Environment) Snapshot() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := make([]Entry, 0, len(e.vars))
	for k, v := range e.vars {
		entries = append(entries, Entry{Key: k, Value: v})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})
	return entries
}

// Seed pushes every pair of vars. Later seeds override earlier unconfirmed ones.
func (e *Environment) Seed(vars map[string]string, confirmed bool) {
	for k, v := range vars {
		e.Push(k, v, confirmed)
	}
}

// SeedFromOS pushes INCIPYT_VAR_<KEY>=value entries of environ as unconfirmed values.
func (e *Environment) SeedFromOS(environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, OSVarPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, OSVarPrefix)
		if name == "" {
			continue
		}
		e.Push(name, value, false)
	}
}

func (e *Environment) confirm(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.vars[key] = Value{Value: value, Confirmed: true}
}

// ParseAssignments parses KEY=VALUE pairs. Keys must be non-empty and free of spaces.
func ParseAssignments(assignments []string) (map[string]string, error) {
	vars := make(map[string]string, len(assignments))
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t{}") {
			return nil, fmt.Errorf("%w: %q (expected KEY=VALUE)", ErrInvalidAssignment, a)
		}
		vars[key] = value
	}
	return vars, nil
}
