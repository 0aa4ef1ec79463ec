package config

import (
	"encoding/json"
	"strings"

	"go.trai.ch/zerr"
)

// Tree is a nested key-value mapping of build/install parameters, the
// JSON-shaped intermediate form every config layer is converted into before
// merging.
type Tree = map[string]any

// ToTree converts any JSON-serializable value into a Tree.
func ToTree(v any) (Tree, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to serialize config layer")
	}
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, zerr.Wrap(err, "failed to deserialize config layer")
	}
	return tree, nil
}

// FromTree decodes a Tree into a typed value.
func FromTree(tree Tree, out any) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return zerr.Wrap(err, "failed to serialize merged config")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return zerr.Wrap(err, "failed to decode merged config")
	}
	return nil
}

// Defaults returns the default configuration as a Tree.
func Defaults() (Tree, error) {
	return ToTree(DefaultArgs())
}

// lookup resolves a JSON pointer like "/build/debug" against a tree.
func lookup(tree Tree, pointer string) (any, bool) {
	current := any(tree)
	for _, key := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// NormalizeKeys recursively rewrites object keys from the external hyphenated
// convention to the internal snake_case convention, e.g. "output-dir" to
// "output_dir".
func NormalizeKeys(tree Tree) Tree {
	normalized := make(Tree, len(tree))
	for key, value := range tree {
		if child, ok := value.(map[string]any); ok {
			value = NormalizeKeys(child)
		}
		normalized[strings.ReplaceAll(strings.ToLower(key), "-", "_")] = value
	}
	return normalized
}
