// SPDX-License-Identifier: MPL-2.0

package templates

import (
	"context"
	"testing"
)

func TestVisit(t *testing.T) {
	t.Parallel()

	env := newFakeEnv(map[string]string{
		"NAME":         "demo",
		"AUTHOR_NAME":  "Ada",
		"AUTHOR_EMAIL": "",
		"DESCRIPTION":  "",
		"PACKAGE_NAME": "demo_pkg",
	})

	d := NewDict(nil)
	mustSet(t, d, P("project", "name"), "{NAME}")
	mustSet(t, d, P("project", "description"), "{DESCRIPTION}")
	mustSet(t, d, P("project", "authors"), []any{map[string]any{"name": "{AUTHOR_NAME}", "email": "{AUTHOR_EMAIL}"}})
	mustSet(t, d, P("project", "keywords"), []any{"{DESCRIPTION}"})
	mustSet(t, d, P("empty", "nested"), "{DESCRIPTION}")
	mustSet(t, d, P("scripts", "{NAME}"), "{PACKAGE_NAME}.__main__:main")
	mustSet(t, d, P("scripts", "{DESCRIPTION}"), "dropped")

	if err := Visit(context.Background(), env, d.Data()); err != nil {
		t.Fatalf("Visit() error: %v", err)
	}

	data := d.Data()
	project := data["project"].(map[string]any)
	if project["name"] != "demo" {
		t.Errorf("project.name = %#v", project["name"])
	}
	if _, ok := project["description"]; ok {
		t.Error("empty description should be pruned")
	}
	if _, ok := project["keywords"]; ok {
		t.Error("list of empty values should be pruned")
	}
	authors := project["authors"].([]any)
	author := authors[0].(map[string]any)
	if author["name"] != "Ada" {
		t.Errorf("author.name = %#v", author["name"])
	}
	if _, ok := author["email"]; ok {
		t.Error("empty author email should be pruned")
	}
	if _, ok := data["empty"]; ok {
		t.Error("map left empty should be pruned")
	}
	scripts := data["scripts"].(map[string]any)
	if scripts["demo"] != "demo_pkg.__main__:main" || len(scripts) != 1 {
		t.Errorf("scripts = %#v", scripts)
	}
}

func TestVisitDropsEmptyMapsInLists(t *testing.T) {
	t.Parallel()

	env := newFakeEnv(map[string]string{"A": ""})
	d := NewDict(nil)
	mustSet(t, d, P("list"), []any{map[string]any{"a": "{A}"}, "kept"})

	if err := Visit(context.Background(), env, d.Data()); err != nil {
		t.Fatalf("Visit() error: %v", err)
	}
	list := d.Data()["list"].([]any)
	if len(list) != 1 || list[0] != "kept" {
		t.Errorf("list = %#v", list)
	}
}

func TestVisitPropagatesErrors(t *testing.T) {
	t.Parallel()

	d := NewDict(nil)
	mustSet(t, d, P("a", "b"), "{MISSING}")

	err := Visit(context.Background(), newFakeEnv(nil), d.Data())
	if err == nil {
		t.Fatal("Visit() should fail on a missing variable")
	}
	if err.Error() != "a: b: missing variable" {
		t.Errorf("error = %q", err.Error())
	}
}
