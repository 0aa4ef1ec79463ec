package config

import (
	"reflect"

	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/zerr"
)

// Merge merges patch into base, layer by layer, in place.
//
// Object nodes are merged key by key while tracking the JSON-pointer path.
// A leaf from patch overwrites base only when it differs from the default at
// the same path: a layer re-asserting a default must not erase an intentional
// override applied by an earlier layer. A leaf at a path absent from the
// defaults fails with ErrUnknownConfigPath.
func Merge(base, patch Tree) error {
	defaults, err := Defaults()
	if err != nil {
		return err
	}
	return mergeObject(base, patch, "", defaults)
}

func mergeObject(base, patch map[string]any, pointer string, defaults Tree) error {
	for key, patchValue := range patch {
		childPointer := pointer + "/" + key

		if patchObject, ok := patchValue.(map[string]any); ok {
			baseObject, ok := base[key].(map[string]any)
			if !ok {
				baseObject = map[string]any{}
				base[key] = baseObject
			}
			if err := mergeObject(baseObject, patchObject, childPointer, defaults); err != nil {
				return err
			}
			continue
		}

		defaultValue, ok := lookup(defaults, childPointer)
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrUnknownConfigPath, "no such key in the default configuration"), "pointer", childPointer)
		}
		if !reflect.DeepEqual(patchValue, defaultValue) {
			base[key] = patchValue
		}
	}
	return nil
}
