package backend

import "strings"

// deepMerge merges src into dst, descending into maps and replacing
// everything else.
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		existing, ok := dst[k].(map[string]any)
		if !ok {
			existing = make(map[string]any, len(sub))
			dst[k] = existing
		}
		deepMerge(existing, sub)
	}
}

// nestedLookup walks tree along the separator-split flat key.
func nestedLookup(tree map[string]any, flat, separator string) (any, bool) {
	node := any(tree)
	for _, part := range strings.Split(flat, separator) {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if node == nil {
		return nil, false
	}
	return node, true
}
