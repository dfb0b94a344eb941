// SPDX-License-Identifier: MPL-2.0

package templates

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrSequenceOverMapping is returned when a sequence is stored where a mapping already lives.
	ErrSequenceOverMapping = errors.New("cannot set a sequence over a mapping")
	// ErrScalarOverMapping is returned when a scalar is stored where a mapping already lives.
	ErrScalarOverMapping = errors.New("cannot set a value over a mapping")
	// ErrNotAMapping is returned when a path traverses a non-mapping value.
	ErrNotAMapping = errors.New("path traverses a non-mapping value")
	// ErrEmptyPath is returned when Set is called without keys.
	ErrEmptyPath = errors.New("empty key path")
)

type (
	// Path addresses a value in a nested template tree.
	Path []string

	// PathError reports which path a Dict operation failed on.
	PathError struct {
		Path Path
		Err  error
	}

	// Dict is a proxy around a nested map that stores template values.
	//
	//	d.Set(P("keyA"), "{VAR}")             // {"keyA": Requires("{VAR}")}
	//	d.Set(P("keyA", "keyB"), "{VAR}")     // {"keyA": {"keyB": Requires("{VAR}")}}
	//	d.Set(P("keyA"), []any{"{VAR}"})      // {"keyA": [Requires("{VAR}")]}
	//	d.Set(P("keyA"), map[string]any{...}) // each entry set under keyA
	//	d.Set(P("keyA"), Raw("{literal}"))    // {"keyA": "{literal}"}
	//
	// Storing a different scalar under an existing key yields MultipleValues.
	// Storing a sequence appends the elements not already present.
	Dict struct {
		data map[string]any
	}
)

// P builds a Path.
func P(keys ...string) Path {
	return Path(keys)
}

// String joins the keys with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error { return e.Err }

// NewDict wraps data. A nil map is replaced by a fresh one.
func NewDict(data map[string]any) *Dict {
	if data == nil {
		data = make(map[string]any)
	}
	return &Dict{data: data}
}

// Data returns the underlying map.
func (d *Dict) Data() map[string]any {
	return d.data
}

// Clone returns a deep copy of the tree. Leaf values, including Resolvers,
// are shared.
func (d *Dict) Clone() *Dict {
	return &Dict{data: cloneMap(d.data)}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Get returns the stored value at path.
func (d *Dict) Get(path Path) (any, bool) {
	var cur any = d.data
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores value at path, transforming it with NewRequires unless value is a
// Transform, a Resolver or a non-string scalar.
func (d *Dict) Set(path Path, value any) error {
	value, transform := splitTransform(value, nil)
	return d.set(path, value, transform)
}

// Merge sets every top-level entry of other, like Python's |= on a mapping.
// A Transform wrapping other applies its function to every entry.
func (d *Dict) Merge(other any) error {
	value, transform := splitTransform(other, nil)
	m, ok := asMapping(value)
	if !ok {
		return fmt.Errorf("merge: %T is not a mapping", value)
	}
	for _, k := range sortedKeys(m) {
		if err := d.set(P(k), m[k], transform); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dict) set(path Path, value any, transform func(any) any) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}

	value, transform = splitTransform(value, transform)

	if m, ok := asMapping(value); ok {
		for _, k := range sortedKeys(m) {
			sub := append(append(Path{}, path...), k)
			if err := d.set(sub, m[k], transform); err != nil {
				return err
			}
		}
		return nil
	}

	config := d.data
	for i, key := range path[:len(path)-1] {
		next, exists := config[key]
		if !exists {
			child := make(map[string]any)
			config[key] = child
			config = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return &PathError{Path: path[:i+1], Err: ErrNotAMapping}
		}
		config = child
	}

	key := path[len(path)-1]
	existing, exists := config[key]

	if seq, ok := asSequence(value); ok {
		if !exists {
			existing = []any{}
		}
		list, ok := existing.([]any)
		if !ok {
			if _, isMap := existing.(map[string]any); isMap {
				return &PathError{Path: path, Err: ErrSequenceOverMapping}
			}
			list = []any{existing}
		}
		for _, v := range seq {
			stored := storedValue(v, transform)
			if !containsValue(list, stored) {
				list = append(list, stored)
			}
		}
		config[key] = list
		return nil
	}

	stored := storedValue(value, transform)
	if !exists {
		config[key] = stored
		return nil
	}
	if _, isMap := existing.(map[string]any); isMap {
		return &PathError{Path: path, Err: ErrScalarOverMapping}
	}
	if valuesEqual(existing, stored) {
		return nil
	}
	if mv, ok := existing.(*MultipleValues); ok && mv.Contains(stored) {
		return nil
	}
	config[key] = NewMultipleValues(stored, existing)
	return nil
}

// splitTransform unwraps a Transform, falling back on fallback (or NewRequires).
func splitTransform(value any, fallback func(any) any) (any, func(any) any) {
	if t, ok := value.(Transform); ok {
		fn := t.Func
		if fn == nil {
			fn = identity
		}
		return t.Value, fn
	}
	if fallback == nil {
		fallback = requiresTransform
	}
	return value, fallback
}

// storedValue converts a raw value into what is kept in the tree.
func storedValue(value any, transform func(any) any) any {
	if t, ok := value.(Transform); ok {
		return t.apply()
	}
	if _, ok := value.(Resolver); ok {
		return value
	}
	if m, ok := asMapping(value); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = storedValue(v, transform)
		}
		return out
	}
	if seq, ok := asSequence(value); ok {
		out := make([]any, len(seq))
		for i, v := range seq {
			out[i] = storedValue(v, transform)
		}
		return out
	}
	return transform(value)
}

func identity(v any) any { return v }

// requiresTransform wraps strings in Requires and keeps other scalars.
func requiresTransform(v any) any {
	if s, ok := v.(string); ok {
		return NewRequires(s)
	}
	return v
}

func containsValue(list []any, v any) bool {
	for _, existing := range list {
		if valuesEqual(existing, v) {
			return true
		}
	}
	return false
}

// asMapping converts string-keyed maps of any element type to map[string]any.
func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asSequence converts slices and arrays (except []byte) to []any.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
