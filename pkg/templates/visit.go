// SPDX-License-Identifier: MPL-2.0

package templates

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/exp/maps"
)

// Visit resolves every deferred value of tree in place.
//
// Resolvers are replaced by their result. Nested maps are visited and removed
// once empty. List elements are resolved, nil elements dropped, and empty lists
// removed. Keys containing "{FIELD}" placeholders are rendered too; a key whose
// placeholders resolve to empty strings is removed along with its value.
//
// Keys are visited in sorted order so that prompts are asked deterministically.
func Visit(ctx context.Context, env Environment, tree map[string]any) error {
	for _, key := range sortedKeys(tree) {
		slog.Debug("visit template key", "key", key)

		value, err := visitValue(ctx, env, tree[key])
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		if !HasFields(key) {
			tree[key] = value
			continue
		}

		delete(tree, key)
		rendered, ok, err := RenderString(ctx, env, key, RenderOptions{})
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if ok {
			tree[rendered] = value
		}
	}

	for key, value := range tree {
		if value == nil {
			delete(tree, key)
		}
	}

	return nil
}

func visitValue(ctx context.Context, env Environment, value any) (any, error) {
	switch v := value.(type) {
	case Resolver:
		resolved, err := v.Resolve(ctx, env)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return nil, nil
		}
		// A resolver may yield another deferred structure.
		if _, again := resolved.(Resolver); again {
			return visitValue(ctx, env, resolved)
		}
		return resolved, nil
	case map[string]any:
		if err := Visit(ctx, env, v); err != nil {
			return nil, err
		}
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case []any:
		out := v[:0]
		for i, element := range v {
			resolved, err := visitValue(ctx, env, element)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if resolved != nil {
				out = append(out, resolved)
			}
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	default:
		return value, nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
