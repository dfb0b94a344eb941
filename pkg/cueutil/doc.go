// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema.
//
// A document is compiled, unified with one definition of the schema, validated
// and decoded either into a typed Go value or into a generic map that can be
// merged into other configuration sources:
//
//	res, err := cueutil.ParseAndDecode[Config](schema, data, "#Config",
//	    cueutil.WithFilename("config.cue"),
//	    cueutil.WithConcrete(false),
//	)
//
// Failures carry the offending field path in JSON-path notation
// (for example "defaults.tools[1]").
package cueutil
