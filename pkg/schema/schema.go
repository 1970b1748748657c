// Package schema implements the shared flat-key schema of the compacted
// translation index: an insertion-ordered bidirectional mapping from
// dotted flat keys to dense column indices, plus the subtree child index
// derived from it.
package schema

// Schema maps flat keys to column indices in [0, N). Indices are dense
// and insertion-order stable; all locales of one index instance share a
// single schema.
type Schema struct {
	keys   []string
	byKey  map[string]int
	frozen bool
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{byKey: make(map[string]int)}
}

// Restore rebuilds a frozen schema from its ordered key list.
func Restore(keys []string) *Schema {
	s := &Schema{
		keys:   keys,
		byKey:  make(map[string]int, len(keys)),
		frozen: true,
	}
	for i, k := range keys {
		s.byKey[k] = i
	}
	return s
}

// Intern returns the column index for key, assigning the next dense
// index when the key is new. It panics after Finalize: construction is
// complete and further growth requires a rebuild.
func (s *Schema) Intern(key string) int {
	if idx, ok := s.byKey[key]; ok {
		return idx
	}
	if s.frozen {
		panic("schema: intern after finalize")
	}
	idx := len(s.keys)
	s.keys = append(s.keys, key)
	s.byKey[key] = idx
	return idx
}

// Lookup returns the column index for key.
func (s *Schema) Lookup(key string) (int, bool) {
	idx, ok := s.byKey[key]
	return idx, ok
}

// Finalize freezes the schema.
func (s *Schema) Finalize() {
	s.frozen = true
}

// Len returns the number of interned keys.
func (s *Schema) Len() int { return len(s.keys) }

// Key returns the flat key at column index idx.
func (s *Schema) Key(idx int) string { return s.keys[idx] }

// Keys returns the ordered key list. Callers must not mutate it.
func (s *Schema) Keys() []string { return s.keys }
