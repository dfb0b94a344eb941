// SPDX-License-Identifier: MPL-2.0

package templates

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

type (
	// Environment is the variable store templates are resolved against.
	Environment interface {
		// Pull returns the value of key, asking the user for it when needed.
		Pull(ctx context.Context, key string) (string, error)
		// Push records a value for key. Confirmed values are never asked about again.
		Push(key, value string, confirmed bool)
		// Choose asks the user to settle between several candidate values.
		Choose(ctx context.Context, title string, options []string) (string, error)
	}

	// Sanitizer rewrites a pulled variable before it is substituted.
	Sanitizer func(key, value string) string

	// RenderOptions tunes RenderString.
	RenderOptions struct {
		// Confirmed marks Kwargs values as confirmed when pushed.
		Confirmed bool
		// Sanitizer is applied to every pulled value.
		Sanitizer Sanitizer
		// Kwargs are pushed into the environment before the template is rendered.
		Kwargs map[string]string
	}
)

// RenderString formats a "{FIELD}" template against env.
//
// Every kwarg that names a template field is pushed first. All fields are then
// pulled and sanitized. When at least one of them is empty the template is not
// rendered and ok is false.
func RenderString(ctx context.Context, env Environment, tmpl string, opts RenderOptions) (rendered string, ok bool, err error) {
	segs, err := parseFormat(tmpl)
	if err != nil {
		return "", false, err
	}

	fields := fieldNames(segs)
	for _, field := range fields {
		if v, has := opts.Kwargs[field]; has {
			env.Push(field, v, opts.Confirmed)
		}
	}

	values := make(map[string]string, len(fields))
	missing := false
	for _, field := range fields {
		v, err := env.Pull(ctx, field)
		if err != nil {
			return "", false, err
		}
		if opts.Sanitizer != nil {
			v = opts.Sanitizer(field, v)
		}
		if v == "" {
			missing = true
		}
		values[field] = v
	}
	if missing {
		return "", false, nil
	}

	return formatSegments(segs, values), true, nil
}

// RenderText executes a text/template body. Templates reach the environment
// through two functions:
//
//	{{ env "AUTHOR_NAME" }}      pulls the variable, failing when it cannot be obtained
//	{{ envOr "DESCRIPTION" "" }} pulls the variable, falling back on any error
func RenderText(ctx context.Context, env Environment, name, body string) (string, error) {
	funcs := template.FuncMap{
		"env": func(key string) (string, error) {
			return env.Pull(ctx, key)
		},
		"envOr": func(key, fallback string) string {
			v, err := env.Pull(ctx, key)
			if err != nil || v == "" {
				return fallback
			}
			return v
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}

	tmpl, err := template.New(name).Option("missingkey=error").Funcs(funcs).Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, nil); err != nil {
		// template.ExecError unwraps to the error returned by env.
		return "", fmt.Errorf("render template %s: %w", name, err)
	}

	return sb.String(), nil
}
