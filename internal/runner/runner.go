// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrCommandFailed is the sentinel wrapped by ExitError.
	ErrCommandFailed = errors.New("command failed")

	// ErrExecutableNotFound is returned when a required program is not on PATH.
	ErrExecutableNotFound = errors.New("executable not found")

	_ Runner = (*ShellRunner)(nil)
	_ Runner = (*DryRunner)(nil)
)

type (
	// Command is one program invocation.
	Command struct {
		Name string
		Args []string
		// Dir is the working directory; empty means the process working directory.
		Dir string
		// Env holds extra KEY=VALUE pairs on top of the inherited environment.
		Env []string
	}

	// Runner executes commands.
	Runner interface {
		// Run executes cmd, streaming its output.
		Run(ctx context.Context, cmd Command) error
		// Output executes cmd and returns its trimmed stdout.
		Output(ctx context.Context, cmd Command) (string, error)
	}

	// ShellRunner runs commands through the mvdan.cc/sh interpreter.
	ShellRunner struct {
		Stdout io.Writer
		Stderr io.Writer
		// BaseEnv replaces os.Environ() when non-nil.
		BaseEnv []string
		Logger  *slog.Logger
	}

	// DryRunner records commands and prints them instead of running them.
	DryRunner struct {
		Out io.Writer

		mu       sync.Mutex
		commands []Command
	}

	// ExitError reports a command that ran but exited non-zero.
	ExitError struct {
		Command Command
		Code    ExitCode
		Stderr  string
	}

	// ExecutableNotFoundError names the missing program.
	ExecutableNotFoundError struct {
		Name string
	}
)

// String renders the command as a quoted shell line.
func (c Command) String() string {
	words := make([]string, 0, len(c.Args)+1)
	for _, w := range append([]string{c.Name}, c.Args...) {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", w)
		}
		words = append(words, q)
	}
	return strings.Join(words, " ")
}

// Error implements error.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with code %d", ErrCommandFailed, e.Command, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap returns ErrCommandFailed.
func (e *ExitError) Unwrap() error {
	return ErrCommandFailed
}

// Error implements error.
func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrExecutableNotFound, e.Name)
}

// Unwrap returns ErrExecutableNotFound.
func (e *ExecutableNotFoundError) Unwrap() error {
	return ErrExecutableNotFound
}

// NewShellRunner returns a ShellRunner writing to stdout and stderr.
func NewShellRunner(stdout, stderr io.Writer) *ShellRunner {
	return &ShellRunner{Stdout: stdout, Stderr: stderr, Logger: slog.Default()}
}

// Run implements Runner.
func (r *ShellRunner) Run(ctx context.Context, cmd Command) error {
	var stderr bytes.Buffer
	errOut := io.Writer(&stderr)
	if r.Stderr != nil {
		errOut = io.MultiWriter(r.Stderr, &stderr)
	}
	return r.exec(ctx, cmd, r.Stdout, errOut, &stderr)
}

// Output implements Runner.
func (r *ShellRunner) Output(ctx context.Context, cmd Command) (string, error) {
	var stdout, stderr bytes.Buffer
	if err := r.exec(ctx, cmd, &stdout, &stderr, &stderr); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (r *ShellRunner) exec(ctx context.Context, cmd Command, stdout, stderr io.Writer, captured *bytes.Buffer) error {
	line := cmd.String()
	if r.Logger != nil {
		r.Logger.Debug("running command", "command", line, "dir", cmd.Dir)
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(line), cmd.Name)
	if err != nil {
		return fmt.Errorf("failed to parse command %s: %w", line, err)
	}

	if stdout == nil {
		stdout = io.Discard
	}
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(r.environ(cmd)...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}

	sh, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := sh.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return &ExitError{Command: cmd, Code: ExitCode(status), Stderr: captured.String()}
		}
		return fmt.Errorf("%s: %w", line, err)
	}
	return nil
}

func (r *ShellRunner) environ(cmd Command) []string {
	base := r.BaseEnv
	if base == nil {
		base = os.Environ()
	}
	env := make([]string, 0, len(base)+len(cmd.Env))
	env = append(env, base...)
	return append(env, cmd.Env...)
}

// Run implements Runner.
func (r *DryRunner) Run(_ context.Context, cmd Command) error {
	r.record(cmd)
	return nil
}

// Output implements Runner. It always returns an empty string.
func (r *DryRunner) Output(_ context.Context, cmd Command) (string, error) {
	r.record(cmd)
	return "", nil
}

// Commands returns the recorded commands in order.
func (r *DryRunner) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

func (r *DryRunner) record(cmd Command) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()

	if r.Out != nil {
		if cmd.Dir != "" {
			fmt.Fprintf(r.Out, "(cd %s) %s\n", cmd.Dir, cmd)
			return
		}
		fmt.Fprintln(r.Out, cmd)
	}
}

// CheckExecutables returns an error naming every program in names that is not on PATH.
func CheckExecutables(names ...string) error {
	env := expand.ListEnviron(os.Environ()...)
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	var errs []error
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, err := interp.LookPathDir(cwd, env, name); err != nil {
			errs = append(errs, &ExecutableNotFoundError{Name: name})
		}
	}
	return errors.Join(errs...)
}
