package schema

import "strings"

// ChildIndex maps each interior flat key to its direct-child flat keys.
// Child lists preserve schema insertion order, which makes subtree
// reconstruction deterministic.
type ChildIndex map[string][]string

// BuildChildIndex derives the child index from a finalized schema. For
// every key containing the separator, the full key is appended to the
// child list of its parent (the key minus its last path component).
func BuildChildIndex(s *Schema, separator string) ChildIndex {
	ci := make(ChildIndex)
	for _, key := range s.Keys() {
		cut := strings.LastIndex(key, separator)
		if cut < 0 {
			continue
		}
		parent := key[:cut]
		ci[parent] = append(ci[parent], key)
	}
	return ci
}

// Children returns the direct-child flat keys of parent, nil when parent
// is not an interior node.
func (ci ChildIndex) Children(parent string) []string {
	return ci[parent]
}
