package models

import (
	"encoding/json"
	"fmt"
)

// MergePatch applies an RFC 7386 JSON merge patch to the JSON encoding
// of dst and decodes the result back into dst. Object members merge
// recursively; a null member removes the key. The result is decoded into
// a fresh value so removed members do not survive from dst.
func MergePatch[T any](dst *T, patch []byte) error {
	cur, err := json.Marshal(dst)
	if err != nil {
		return fmt.Errorf("encode target: %w", err)
	}
	var doc, p any
	if err := json.Unmarshal(cur, &doc); err != nil {
		return fmt.Errorf("decode target: %w", err)
	}
	if err := json.Unmarshal(patch, &p); err != nil {
		return fmt.Errorf("decode patch: %w", err)
	}
	merged, err := json.Marshal(mergeValue(doc, p))
	if err != nil {
		return fmt.Errorf("encode merged: %w", err)
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return fmt.Errorf("decode merged: %w", err)
	}
	*dst = out
	return nil
}

func mergeValue(doc, patch any) any {
	pm, ok := patch.(map[string]any)
	if !ok {
		return patch
	}
	dm, ok := doc.(map[string]any)
	if !ok {
		dm = map[string]any{}
	}
	for k, v := range pm {
		if v == nil {
			delete(dm, k)
			continue
		}
		dm[k] = mergeValue(dm[k], v)
	}
	return dm
}
