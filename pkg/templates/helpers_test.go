// SPDX-License-Identifier: MPL-2.0

package templates

import (
	"context"
	"errors"
)

var errMissing = errors.New("missing variable")

// fakeEnv is a map-backed Environment that records pushes and choices.
type fakeEnv struct {
	values    map[string]string
	confirmed map[string]bool
	pulls     []string
	choices   [][]string
	choose    func(options []string) string
}

func newFakeEnv(values map[string]string) *fakeEnv {
	if values == nil {
		values = make(map[string]string)
	}
	return &fakeEnv{values: values, confirmed: make(map[string]bool)}
}

func (e *fakeEnv) Pull(_ context.Context, key string) (string, error) {
	e.pulls = append(e.pulls, key)
	v, ok := e.values[key]
	if !ok {
		return "", errMissing
	}
	return v, nil
}

func (e *fakeEnv) Push(key, value string, confirmed bool) {
	if e.confirmed[key] {
		return
	}
	e.values[key] = value
	e.confirmed[key] = confirmed
}

func (e *fakeEnv) Choose(_ context.Context, _ string, options []string) (string, error) {
	e.choices = append(e.choices, options)
	if e.choose != nil {
		return e.choose(options), nil
	}
	return options[0], nil
}
