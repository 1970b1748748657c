package index

import (
	"strings"

	"github.com/Shopify/i18n/pkg/packed"
)

// Lookup resolves a flat key against one locale's value column. Keys may
// carry a leading "<locale><sep>" prefix, which is stripped. A subtree
// root reconstructs its nested map on demand. The boolean result is
// false for every "not found" outcome: unknown key, locale without a
// column, absent position, or explicit nil leaf.
//
// Leaf results decoded from the arena are fresh copies; callers may
// mutate them. Values held in the object table (arrays, maps, spilled
// byte slices) are returned as stored and are shared with the index.
func (ix *Index) Lookup(locale, key string) (any, bool) {
	col, ok := ix.column(locale)
	if !ok {
		ix.metrics.RecordLookup("miss")
		return nil, false
	}

	key = strings.TrimPrefix(key, locale+ix.separator)

	idx, ok := ix.schema.Lookup(key)
	if !ok {
		ix.metrics.RecordLookup("miss")
		return nil, false
	}

	word := colValue(col, idx)
	switch {
	case packed.IsAbsent(word):
		ix.metrics.RecordLookup("miss")
		return nil, false
	case packed.IsSubtree(word):
		ix.metrics.RecordLookup("hit")
		return ix.subtree(col, key), true
	default:
		v := ix.decodeLeaf(word)
		if v == nil {
			ix.metrics.RecordLookup("miss")
			return nil, false
		}
		ix.metrics.RecordLookup("hit")
		return v, true
	}
}

// subtree reconstructs the nested map rooted at the interior flat key
// parent. Children with absent or nil values are omitted. Child order
// follows schema insertion order, so reconstruction is deterministic.
func (ix *Index) subtree(col []int64, parent string) map[string]any {
	children := ix.children.Children(parent)
	out := make(map[string]any, len(children))
	prefix := len(parent) + len(ix.separator)

	for _, child := range children {
		local := child[prefix:]
		idx, ok := ix.schema.Lookup(child)
		if !ok {
			continue
		}
		word := colValue(col, idx)
		switch {
		case packed.IsAbsent(word):
		case packed.IsSubtree(word):
			out[local] = ix.subtree(col, child)
		default:
			if v := ix.decodeLeaf(word); v != nil {
				out[local] = v
			}
		}
	}
	return out
}

// decodeLeaf materializes a non-sentinel packed word into its leaf
// value.
func (ix *Index) decodeLeaf(word int64) any {
	if packed.IsString(word) {
		return ix.arena.DecodeRef(word)
	}
	idx := packed.ObjectIndex(word)
	v, ok := ix.objects.At(idx)
	if !ok {
		// References are produced only by the compactor; a dangling one
		// means the index is corrupt.
		panic(&IndexError{Op: "Lookup", Cause: ErrBadSnapshot})
	}
	return v
}
