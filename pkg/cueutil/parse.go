// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseResult holds a decoded document and the unified value it came from.
type ParseResult[T any] struct {
	Value   *T
	Unified cue.Value
}

// Unify compiles schema and data, unifies data with the schema definition at
// definition (for example "#Config") and validates the result.
func Unify(schema, data []byte, definition string, opts ...Option) (cue.Value, error) {
	o := newOptions(opts)

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: compile schema: %w", schemaValue.Err())
	}

	root := schemaValue.LookupPath(cue.ParsePath(definition))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s: %w", definition, root.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(o.filename))
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), o.filename)
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}

	return unified, nil
}

// ParseAndDecode validates data against the schema definition and decodes it
// into T.
func ParseAndDecode[T any](schema, data []byte, definition string, opts ...Option) (*ParseResult[T], error) {
	unified, err := Unify(schema, data, definition, opts...)
	if err != nil {
		return nil, err
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, newOptions(opts).filename)
	}

	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}

// DecodeMap validates data against the schema definition and decodes it into
// a generic map. Keys keep the case they have in the document.
func DecodeMap(schema, data []byte, definition string, opts ...Option) (map[string]any, error) {
	unified, err := Unify(schema, data, definition, opts...)
	if err != nil {
		return nil, err
	}

	m := map[string]any{}
	if err := unified.Decode(&m); err != nil {
		return nil, FormatError(err, newOptions(opts).filename)
	}
	return m, nil
}
