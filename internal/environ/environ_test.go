// SPDX-License-Identifier: MPL-2.0

package environ

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type scriptedPrompter struct {
	inputs   map[string]string
	defaults map[string]string
	choice   int
	err      error
}

func (p *scriptedPrompter) Input(_ context.Context, key, def string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if p.defaults == nil {
		p.defaults = make(map[string]string)
	}
	p.defaults[key] = def
	if v, ok := p.inputs[key]; ok {
		return v, nil
	}
	return def, nil
}

func (p *scriptedPrompter) Choose(_ context.Context, _ string, options []string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return options[p.choice], nil
}

func TestPushKeepsConfirmedValues(t *testing.T) {
	t.Parallel()

	env := New()
	env.Push("NAME", "guess", false)
	env.Push("NAME", "better guess", false)
	if v, _ := env.Lookup("NAME"); v.Value != "better guess" || v.Confirmed {
		t.Fatalf("after unconfirmed pushes got %+v", v)
	}

	env.Push("NAME", "settled", true)
	env.Push("NAME", "ignored", false)
	env.Push("NAME", "ignored too", true)
	if v, _ := env.Lookup("NAME"); v.Value != "settled" || !v.Confirmed {
		t.Fatalf("confirmed value overwritten: %+v", v)
	}

	env.Replace("NAME", "forced")
	if v, _ := env.Lookup("NAME"); v.Value != "forced" {
		t.Fatalf("Replace() did not override: %+v", v)
	}
}

func TestPullNonInteractive(t *testing.T) {
	t.Parallel()

	env := New()
	env.Push("CONFIRMED", "yes", true)
	env.Push("GUESS", "maybe", false)

	tests := []struct {
		key     string
		want    string
		wantErr error
	}{
		{key: "CONFIRMED", want: "yes"},
		{key: "GUESS", want: "maybe"},
		{key: "ABSENT", wantErr: ErrMissingVariable},
	}

	for _, tt := range tests {
		got, err := env.Pull(t.Context(), tt.key)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Pull(%s) error = %v, want %v", tt.key, err, tt.wantErr)
			}
			var mv *MissingVariableError
			if !errors.As(err, &mv) || mv.Key != tt.key {
				t.Errorf("Pull(%s) error %v does not name the key", tt.key, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Pull(%s) = %q, %v; want %q", tt.key, got, err, tt.want)
		}
	}

	if v, _ := env.Lookup("GUESS"); !v.Confirmed {
		t.Error("pulled value should become confirmed")
	}
}

func TestPullInteractive(t *testing.T) {
	t.Parallel()

	p := &scriptedPrompter{inputs: map[string]string{"NAME": "typed"}}
	env := New(WithPrompter(p))
	env.Push("NAME", "suggested", false)
	env.Push("LICENSE", "MIT", true)

	got, err := env.Pull(t.Context(), "NAME")
	if err != nil || got != "typed" {
		t.Fatalf("Pull(NAME) = %q, %v", got, err)
	}
	if p.defaults["NAME"] != "suggested" {
		t.Errorf("prompt default = %q, want the unconfirmed value", p.defaults["NAME"])
	}

	if _, err := env.Pull(t.Context(), "LICENSE"); err != nil {
		t.Fatal(err)
	}
	if _, asked := p.defaults["LICENSE"]; asked {
		t.Error("confirmed variable should not be prompted")
	}

	// Second pull is served from the now confirmed value.
	delete(p.inputs, "NAME")
	if got, _ := env.Pull(t.Context(), "NAME"); got != "typed" {
		t.Errorf("second Pull(NAME) = %q", got)
	}
}

func TestPullPrompterError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("aborted")
	env := New(WithPrompter(&scriptedPrompter{err: sentinel}))
	if _, err := env.Pull(t.Context(), "X"); !errors.Is(err, sentinel) {
		t.Fatalf("Pull() error = %v, want wrapped %v", err, sentinel)
	}
}

func TestChoose(t *testing.T) {
	t.Parallel()

	options := []string{"a", "b", "c"}

	got, err := New().Choose(t.Context(), "pick", options)
	if err != nil || got != "a" {
		t.Errorf("non-interactive Choose() = %q, %v; want first option", got, err)
	}

	got, err = New(WithPrompter(&scriptedPrompter{choice: 2})).Choose(t.Context(), "pick", options)
	if err != nil || got != "c" {
		t.Errorf("interactive Choose() = %q, %v", got, err)
	}

	if _, err := New().Choose(t.Context(), "pick", nil); err == nil {
		t.Error("Choose() with no options should fail")
	}
}

func TestSeedPriority(t *testing.T) {
	t.Parallel()

	env := New()
	env.Seed(map[string]string{"A": "default", "B": "default", "C": "default"}, false)
	env.SeedFromOS([]string{
		"HOME=/root",
		"INCIPYT_VAR_B=from-os",
		"INCIPYT_VAR_=ignored",
		"INCIPYT_VAR_NOEQUALS",
	})
	env.Seed(map[string]string{"C": "cli"}, true)
	env.SeedFromOS([]string{"INCIPYT_VAR_C=too-late"})

	want := []Entry{
		{Key: "A", Value: Value{Value: "default"}},
		{Key: "B", Value: Value{Value: "from-os"}},
		{Key: "C", Value: Value{Value: "cli", Confirmed: true}},
	}
	if got := env.Snapshot(); !slices.Equal(got, want) {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestParseAssignments(t *testing.T) {
	t.Parallel()

	got, err := ParseAssignments([]string{"NAME=demo", "EMPTY=", "URL=https://x?a=b"})
	if err != nil {
		t.Fatal(err)
	}
	if got["NAME"] != "demo" || got["EMPTY"] != "" || got["URL"] != "https://x?a=b" {
		t.Errorf("ParseAssignments() = %v", got)
	}

	for _, bad := range []string{"novalue", "=x", "A B=c", "{X}=1"} {
		if _, err := ParseAssignments([]string{bad}); !errors.Is(err, ErrInvalidAssignment) {
			t.Errorf("ParseAssignments(%q) error = %v, want ErrInvalidAssignment", bad, err)
		}
	}
}
