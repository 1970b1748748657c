package index

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Shopify/i18n/pkg/arena"
	"github.com/Shopify/i18n/pkg/logging"
	"github.com/Shopify/i18n/pkg/objtable"
	"github.com/Shopify/i18n/pkg/packed"
	"github.com/Shopify/i18n/pkg/schema"
	"github.com/Shopify/i18n/pkg/value"
)

// compactor carries the builder state of one compaction run.
type compactor struct {
	separator string
	arena     *arena.Builder
	schema    *schema.Schema
	objects   *objtable.Table
	columns   map[string][]int64
	procs     map[int][]ProcRef
}

// Compact flattens the given locale trees into a finalized index.
// Sibling keys and locales are processed in sorted order so that two
// compactions of equal input produce byte-identical schemas, arenas,
// and columns.
func Compact(trees map[string]map[string]any, opts ...Option) (*Index, error) {
	o := newOptions(opts)
	start := time.Now()

	c := &compactor{
		separator: o.separator,
		arena:     arena.NewBuilder(),
		schema:    schema.New(),
		objects:   objtable.New(),
		columns:   make(map[string][]int64, len(trees)),
		procs:     make(map[int][]ProcRef),
	}

	locales := make([]string, 0, len(trees))
	for locale := range trees {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	for _, locale := range locales {
		col := make([]int64, 0, c.schema.Len())
		if err := c.walk(locale, &col, "", trees[locale]); err != nil {
			o.metrics.RecordCompaction("error", time.Since(start))
			return nil, err
		}
		c.columns[locale] = col
	}

	ix := &Index{
		separator: c.separator,
		arena:     c.arena.Finalize(),
		schema:    c.schema,
		objects:   c.objects,
		columns:   c.columns,
		procs:     c.procs,
		buildID:   uuid.NewString(),
		log:       o.log,
		metrics:   o.metrics,
	}
	ix.schema.Finalize()
	ix.objects.Finalize()
	ix.children = schema.BuildChildIndex(ix.schema, ix.separator)

	if err := ix.checkLeafSubtreeConflicts(); err != nil {
		o.metrics.RecordCompaction("error", time.Since(start))
		return nil, err
	}

	elapsed := time.Since(start)
	o.metrics.RecordCompaction("ok", elapsed)
	ix.publishSize()
	stats := ix.Stats()
	o.log.Info("index compacted",
		logging.String("build_id", ix.buildID),
		logging.Int("locales", stats.Locales),
		logging.Int("schema_keys", stats.SchemaKeys),
		logging.Int("arena_bytes", stats.ArenaBytes),
		logging.Int("objects", stats.ObjectCount),
		logging.Duration("elapsed", elapsed),
	)
	return ix, nil
}

// walk performs the depth-first flattening of one locale subtree rooted
// at the parent flat key.
func (c *compactor) walk(locale string, col *[]int64, parent string, node map[string]any) error {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		flat := k
		if parent != "" {
			flat = parent + c.separator + k
		}
		idx := c.schema.Intern(flat)

		v := node[k]
		if child, ok := v.(map[string]any); ok {
			c.set(col, idx, packed.SubtreeSentinel)
			if err := c.walk(locale, col, flat, child); err != nil {
				return err
			}
			continue
		}

		word, err := c.pack(locale, flat, v)
		if err != nil {
			return &IndexError{Op: "Compact", Locale: locale, Key: flat, Cause: err}
		}
		c.set(col, idx, word)
	}
	return nil
}

// pack classifies a leaf value into a packed reference, interning
// strings into the arena and spilling everything else to the object
// side table.
func (c *compactor) pack(locale, flat string, v any) (int64, error) {
	switch leaf := v.(type) {
	case string:
		ref, err := c.arena.Intern([]byte(leaf), arena.ClassifyString(leaf))
		if err == arena.ErrTooLarge {
			return c.spill(leaf), nil
		}
		return ref, err
	case []byte:
		ref, err := c.arena.Intern(leaf, arena.EncBinary)
		if err == arena.ErrTooLarge {
			return c.spill(append([]byte(nil), leaf...)), nil
		}
		return ref, err
	case value.Text:
		enc, ok := c.arena.Encodings().Register(leaf.Encoding)
		if !ok {
			// Encoding id space exhausted; the value keeps its name by
			// living in the object table instead.
			return c.spill(leaf), nil
		}
		ref, err := c.arena.Intern(leaf.Bytes, enc)
		if err == arena.ErrTooLarge {
			return c.spill(leaf), nil
		}
		return ref, err
	case value.Rule:
		idx := c.objects.Append(leaf)
		c.procs[idx] = append(c.procs[idx], ProcRef{Locale: locale, Key: flat})
		return packed.Object(idx), nil
	default:
		return c.spill(normalizeLeaf(v)), nil
	}
}

// spill appends v to the object side table and returns its reference.
func (c *compactor) spill(v any) int64 {
	return packed.Object(c.objects.Append(v))
}

// set writes word at column index idx, padding the gap with the
// absence word.
func (c *compactor) set(col *[]int64, idx int, word int64) {
	for len(*col) < idx {
		*col = append(*col, packed.Absent)
	}
	if len(*col) == idx {
		*col = append(*col, word)
		return
	}
	(*col)[idx] = word
}

// normalizeLeaf folds the integer kinds onto int64 so values compare
// equal after a cache round trip.
func normalizeLeaf(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// checkLeafSubtreeConflicts enforces the structural invariant that a
// column whose schema key has a longer descendant holds either the
// subtree sentinel or nothing. Mixed input (one locale defines a key as
// a leaf, another as a subtree) is rejected rather than silently
// shadowed.
func (ix *Index) checkLeafSubtreeConflicts() error {
	for parent := range ix.children {
		idx, ok := ix.schema.Lookup(parent)
		if !ok {
			continue
		}
		for locale, col := range ix.columns {
			word := colValue(col, idx)
			if !packed.IsAbsent(word) && !packed.IsSubtree(word) {
				return &IndexError{Op: "Compact", Locale: locale, Key: parent, Cause: ErrKeyConflict}
			}
		}
	}
	return nil
}
