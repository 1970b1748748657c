package index

import (
	"strings"

	"github.com/Shopify/i18n/pkg/logging"
	"github.com/Shopify/i18n/pkg/packed"
)

// Decompact removes locale's value column from the index and returns the
// locale's translations as a fresh nested tree. The arena, schema,
// object table, and every other locale remain intact and compacted.
//
// The returned map is owned by the caller; the framework installs it as
// the locale's mutable nested representation.
func (ix *Index) Decompact(locale string) (map[string]any, bool) {
	ix.mu.Lock()
	col, ok := ix.columns[locale]
	if ok {
		delete(ix.columns, locale)
	}
	ix.mu.Unlock()
	if !ok {
		return nil, false
	}

	tree := ix.rebuild(col)
	ix.metrics.RecordDecompaction()
	ix.publishSize()
	ix.log.Debug("locale decompacted",
		logging.String("locale", locale),
		logging.Int("column_len", len(col)))
	return tree, true
}

// Export rebuilds locale's nested tree without disturbing the index.
// Used for read-only snapshot views.
func (ix *Index) Export(locale string) (map[string]any, bool) {
	col, ok := ix.column(locale)
	if !ok {
		return nil, false
	}
	return ix.rebuild(col), true
}

// rebuild decodes each non-sentinel, non-nil column word into its
// nested position.
func (ix *Index) rebuild(col []int64) map[string]any {
	tree := make(map[string]any)
	for idx, key := range ix.schema.Keys() {
		word := colValue(col, idx)
		if packed.IsAbsent(word) || packed.IsSubtree(word) {
			continue
		}
		v := ix.decodeLeaf(word)
		if v == nil {
			continue
		}
		setNested(tree, strings.Split(key, ix.separator), v)
	}
	return tree
}

// setNested inserts v at the nested path, creating interior maps as
// needed. Schema order guarantees parents appear before descendants, so
// an interior position is never occupied by a leaf here.
func setNested(tree map[string]any, path []string, v any) {
	node := tree
	for _, part := range path[:len(path)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[part] = next
		}
		node = next
	}
	node[path[len(path)-1]] = v
}
