// Package index implements the compacted translation index: a columnar,
// arena-backed representation of nested translation trees supporting
// O(1) leaf lookups, on-demand subtree reconstruction, and per-locale
// decompaction.
//
// The index is single-writer, many-reader. It is built once by Compact,
// after which arena, schema, object table, and subtree child index are
// immutable. The only mutable root is the locale-to-column map, guarded
// by an RWMutex so that removing one locale's column (decompaction)
// becomes visible to readers atomically.
package index

import (
	"sync"

	"github.com/Shopify/i18n/pkg/arena"
	"github.com/Shopify/i18n/pkg/logging"
	"github.com/Shopify/i18n/pkg/metrics"
	"github.com/Shopify/i18n/pkg/objtable"
	"github.com/Shopify/i18n/pkg/packed"
	"github.com/Shopify/i18n/pkg/schema"
)

// DefaultSeparator joins nested map keys into flat keys.
const DefaultSeparator = "."

// ProcRef records one (locale, flat key) position that referenced an
// executable rule in the object table. The cache layer persists these so
// rules can be patched back in after a load.
type ProcRef struct {
	Locale string
	Key    string
}

// Index is the compacted representation of a set of locale trees.
type Index struct {
	mu sync.RWMutex

	separator string
	arena     *arena.Arena
	schema    *schema.Schema
	objects   *objtable.Table
	children  schema.ChildIndex
	columns   map[string][]int64
	procs     map[int][]ProcRef

	buildID string
	log     logging.Logger
	metrics *metrics.Registry
}

// Option configures Compact and FromSnapshot.
type Option func(*options)

type options struct {
	separator string
	log       logging.Logger
	metrics   *metrics.Registry
}

func newOptions(opts []Option) options {
	o := options{
		separator: DefaultSeparator,
		log:       logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSeparator overrides the flat key separator.
func WithSeparator(sep string) Option {
	return func(o *options) {
		if sep != "" {
			o.separator = sep
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log logging.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(o *options) { o.metrics = m }
}

// Separator returns the flat key separator the index was built with.
func (ix *Index) Separator() string { return ix.separator }

// BuildID returns the unique id assigned to the compaction run that
// produced this index.
func (ix *Index) BuildID() string { return ix.buildID }

// Compacted reports whether locale is served from the compacted path.
func (ix *Index) Compacted(locale string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.columns[locale]
	return ok
}

// Locales returns the locales currently holding a value column.
func (ix *Index) Locales() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.columns))
	for locale := range ix.columns {
		out = append(out, locale)
	}
	return out
}

// column fetches the value column for locale under the read lock. The
// returned slice itself is immutable.
func (ix *Index) column(locale string) ([]int64, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	col, ok := ix.columns[locale]
	return col, ok
}

// colValue reads the packed word at idx, treating short columns as
// absent past their length.
func colValue(col []int64, idx int) int64 {
	if idx >= len(col) {
		return packed.Absent
	}
	return col[idx]
}

// Stats describes the steady-state shape of the index.
type Stats struct {
	Locales      int
	SchemaKeys   int
	ArenaBytes   int
	ObjectCount  int
	InteriorKeys int
}

// Stats returns the current index shape.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Stats{
		Locales:      len(ix.columns),
		SchemaKeys:   ix.schema.Len(),
		ArenaBytes:   ix.arena.Len(),
		ObjectCount:  ix.objects.Len(),
		InteriorKeys: len(ix.children),
	}
}

// Schema exposes the shared schema for read-only use (inspection
// tooling, decompaction helpers).
func (ix *Index) Schema() *schema.Schema { return ix.schema }

// ProcPositions returns the recorded executable-rule positions.
func (ix *Index) ProcPositions() map[int][]ProcRef { return ix.procs }

func (ix *Index) publishSize() {
	if ix.metrics == nil {
		return
	}
	s := ix.Stats()
	ix.metrics.UpdateIndexSize(s.ArenaBytes, s.SchemaKeys, s.ObjectCount, s.Locales)
}
