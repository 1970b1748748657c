package index

import (
	"github.com/google/uuid"

	"github.com/Shopify/i18n/pkg/arena"
	"github.com/Shopify/i18n/pkg/objtable"
	"github.com/Shopify/i18n/pkg/schema"
	"github.com/Shopify/i18n/pkg/value"
)

// Snapshot is the serialization-ready image of an index. Field contents
// mirror the cache frame: schema, value columns, arena (bytes plus
// encoding names), object table, subtree child index, and the recorded
// executable-rule positions.
type Snapshot struct {
	Separator      string
	SchemaKeys     []string
	Columns        map[string][]int64
	ArenaBytes     []byte
	ArenaEncodings []string
	Objects        []any
	Children       map[string][]string
	ProcPositions  map[int][]ProcRef
}

// ToSnapshot captures the index under the read lock. The snapshot
// shares the immutable arena bytes and object values with the index;
// the columns map is copied.
func (ix *Index) ToSnapshot() *Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	columns := make(map[string][]int64, len(ix.columns))
	for locale, col := range ix.columns {
		columns[locale] = col
	}
	return &Snapshot{
		Separator:      ix.separator,
		SchemaKeys:     ix.schema.Keys(),
		Columns:        columns,
		ArenaBytes:     ix.arena.Bytes(),
		ArenaEncodings: ix.arena.Encodings().Names(),
		Objects:        ix.objects.Values(),
		Children:       ix.children,
		ProcPositions:  ix.procs,
	}
}

// FromSnapshot rebuilds a finalized index from a snapshot, verifying
// every structural invariant before the index is handed out. A snapshot
// that fails verification is rejected: the cache layer treats that as a
// miss.
func FromSnapshot(s *Snapshot, opts ...Option) (*Index, error) {
	o := newOptions(opts)
	if s.Separator != "" && s.Separator != o.separator {
		return nil, &IndexError{Op: "FromSnapshot", Cause: ErrSeparatorMismatch}
	}

	ar, err := arena.Restore(s.ArenaBytes, s.ArenaEncodings)
	if err != nil {
		return nil, &IndexError{Op: "FromSnapshot", Cause: err}
	}

	sep := s.Separator
	if sep == "" {
		sep = o.separator
	}

	ix := &Index{
		separator: sep,
		arena:     ar,
		schema:    schema.Restore(s.SchemaKeys),
		objects:   objtable.Restore(s.Objects),
		columns:   s.Columns,
		procs:     s.ProcPositions,
		buildID:   uuid.NewString(),
		log:       o.log,
		metrics:   o.metrics,
	}
	if ix.columns == nil {
		ix.columns = make(map[string][]int64)
	}
	if ix.procs == nil {
		ix.procs = make(map[int][]ProcRef)
	}
	ix.children = schema.BuildChildIndex(ix.schema, ix.separator)

	if err := ix.Verify(); err != nil {
		return nil, err
	}
	ix.publishSize()
	return ix, nil
}

// PatchRules installs re-extracted executable rules at their recorded
// object table positions. Positions without a matching rule keep
// whatever the snapshot carried (the placeholder).
func (ix *Index) PatchRules(rules map[string]map[string]value.Rule) int {
	patched := 0
	for idx, refs := range ix.procs {
		for _, ref := range refs {
			byKey, ok := rules[ref.Locale]
			if !ok {
				continue
			}
			rule, ok := byKey[ref.Key]
			if !ok {
				continue
			}
			if ix.objects.Replace(idx, rule) {
				patched++
			}
			break
		}
	}
	return patched
}
