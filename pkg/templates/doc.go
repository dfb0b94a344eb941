// SPDX-License-Identifier: MPL-2.0

// Package templates provides the deferred values used to describe generated
// configuration files.
//
// Tools never write literal configuration. They store template values in a
// Dict, a proxy over a nested map[string]any, using "{VARIABLE}" placeholders.
// Values are resolved later by Visit against an Environment, which may prompt
// the user for missing variables or to settle conflicting values:
//
//	d := templates.NewDict(nil)
//	_ = d.Set(templates.P("project", "name"), "{PROJECT_NAME}")
//	_ = d.Set(templates.P("project", "classifiers"), []any{"Programming Language :: Python :: 3"})
//	_ = templates.Visit(ctx, env, d.Data())
//
// A value whose placeholders resolve to empty strings is dropped from the tree,
// and so are maps and lists left empty after resolution.
package templates
