// SPDX-License-Identifier: MPL-2.0

package templates

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"strings"
)

// DefaultPythonVariable is the environment variable holding the Python interpreter command.
const DefaultPythonVariable = "PYTHON_CMD"

type (
	// Resolver is a deferred value. A nil result drops the entry holding it.
	Resolver interface {
		Resolve(ctx context.Context, env Environment) (any, error)
	}

	// ResolverFunc adapts a function to the Resolver interface.
	ResolverFunc func(ctx context.Context, env Environment) (any, error)

	// Requires is a "{FIELD}" template resolved against the environment.
	Requires struct {
		Template  string
		Confirmed bool
		Sanitizer Sanitizer
		Kwargs    map[string]string
	}

	// Transform pairs a raw value with the function that turns it into a stored value.
	// A nil Func stores the value unchanged.
	Transform struct {
		Value any
		Func  func(any) any
	}

	// MultipleValues holds the conflicting values stored under a single key.
	// The first value is the most recent one.
	MultipleValues struct {
		Values []any
	}

	// PythonEnv names the environment variable used for the Python interpreter.
	PythonEnv struct {
		Variable string
	}

	equaler interface {
		Equal(other any) bool
	}
)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, env Environment) (any, error) {
	return f(ctx, env)
}

// NewRequires creates an unconfirmed Requires with no sanitizer.
func NewRequires(tmpl string) *Requires {
	return &Requires{Template: tmpl}
}

// Resolve renders the template, returning nil when a field is empty.
func (r *Requires) Resolve(ctx context.Context, env Environment) (any, error) {
	rendered, ok, err := RenderString(ctx, env, r.Template, RenderOptions{
		Confirmed: r.Confirmed,
		Sanitizer: r.Sanitizer,
		Kwargs:    r.Kwargs,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return rendered, nil
}

// Equal reports whether other is a Requires with the same template, flags,
// sanitizer and kwargs.
func (r *Requires) Equal(other any) bool {
	o, ok := other.(*Requires)
	if !ok || o == nil || r == nil {
		return ok && o == r
	}
	return r.Template == o.Template &&
		r.Confirmed == o.Confirmed &&
		funcEqual(r.Sanitizer, o.Sanitizer) &&
		maps.Equal(r.Kwargs, o.Kwargs)
}

// String returns a debug representation.
func (r *Requires) String() string {
	return fmt.Sprintf("Requires(template=%q, confirmed=%v, kwargs=%v)", r.Template, r.Confirmed, r.Kwargs)
}

// Raw stores v without turning strings into templates.
func Raw(v any) Transform {
	return Transform{Value: v}
}

// With stores v through fn.
func With(v any, fn func(any) any) Transform {
	return Transform{Value: v, Func: fn}
}

func (t Transform) apply() any {
	if t.Func == nil {
		return t.Value
	}
	return t.Func(t.Value)
}

// NewMultipleValues stores head in front of tail. A MultipleValues tail is flattened.
func NewMultipleValues(head, tail any) *MultipleValues {
	if mv, ok := tail.(*MultipleValues); ok {
		values := make([]any, 0, len(mv.Values)+1)
		values = append(values, head)
		values = append(values, mv.Values...)
		return &MultipleValues{Values: values}
	}
	return &MultipleValues{Values: []any{head, tail}}
}

// Contains reports whether v equals one of the stored alternatives.
func (m *MultipleValues) Contains(v any) bool {
	for _, existing := range m.Values {
		if valuesEqual(existing, v) {
			return true
		}
	}
	return false
}

// Resolve resolves every alternative and asks the environment to choose when
// more than one distinct value remains.
func (m *MultipleValues) Resolve(ctx context.Context, env Environment) (any, error) {
	var (
		candidates []any
		labels     []string
	)
	seen := make(map[string]bool)
	for _, v := range m.Values {
		if r, ok := v.(Resolver); ok {
			resolved, err := r.Resolve(ctx, env)
			if err != nil {
				return nil, err
			}
			v = resolved
		}
		if v == nil {
			continue
		}
		label := fmt.Sprint(v)
		if seen[label] {
			continue
		}
		seen[label] = true
		candidates = append(candidates, v)
		labels = append(labels, label)
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}

	choice, err := env.Choose(ctx, "Conflicting configuration, choose between", labels)
	if err != nil {
		return nil, err
	}
	for i, label := range labels {
		if label == choice {
			return candidates[i], nil
		}
	}
	return nil, fmt.Errorf("choice %q is not one of %s", choice, strings.Join(labels, ", "))
}

// Equal reports whether other holds the same alternatives in the same order.
func (m *MultipleValues) Equal(other any) bool {
	o, ok := other.(*MultipleValues)
	if !ok || len(o.Values) != len(m.Values) {
		return false
	}
	for i := range m.Values {
		if !valuesEqual(m.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

// String returns a debug representation.
func (m *MultipleValues) String() string {
	return fmt.Sprintf("MultipleValues(%v)", m.Values)
}

// Name returns the variable name, defaulting to DefaultPythonVariable.
func (p PythonEnv) Name() string {
	if p.Variable == "" {
		return DefaultPythonVariable
	}
	return p.Variable
}

// Requires returns a template resolving to the interpreter command.
func (p PythonEnv) Requires() *Requires {
	return NewRequires("{" + p.Name() + "}")
}

// valuesEqual compares stored values. Functions compare by identity.
func valuesEqual(a, b any) bool {
	if eq, ok := a.(equaler); ok {
		return eq.Equal(b)
	}
	if eq, ok := b.(equaler); ok {
		return eq.Equal(a)
	}
	if funcKind(a) || funcKind(b) {
		return funcEqual(a, b)
	}
	return reflect.DeepEqual(a, b)
}

func funcKind(v any) bool {
	return v != nil && reflect.ValueOf(v).Kind() == reflect.Func
}

func funcEqual(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	if va.Kind() != reflect.Func || vb.Kind() != reflect.Func {
		return false
	}
	if va.IsNil() || vb.IsNil() {
		return va.IsNil() && vb.IsNil()
	}
	return va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
}
