// Package backend exposes the public store API of the compacted
// translation index. A Store owns nested translation trees until
// Compact freezes them into a columnar index; afterwards lookups are
// served from the compacted path, and mutating a locale transparently
// decompacts just that locale.
package backend

import (
	"sort"
	"strings"
	"sync"

	"github.com/Shopify/i18n/pkg/config"
	"github.com/Shopify/i18n/pkg/index"
	"github.com/Shopify/i18n/pkg/logging"
	"github.com/Shopify/i18n/pkg/metrics"
	"github.com/Shopify/i18n/pkg/value"
)

// maxLinkDepth bounds transitive symbol-link resolution.
const maxLinkDepth = 16

// Store is a translation store with an optional compacted index.
type Store struct {
	mu sync.RWMutex

	separator string
	log       logging.Logger
	metrics   *metrics.Registry

	// cfg supplies defaults for CompactOptions.
	cfg config.Config

	// trees holds the mutable nested representation of every locale
	// that is not (or no longer) compacted.
	trees map[string]map[string]any

	// idx is nil until the first successful Compact.
	idx *index.Index
}

// Option configures a Store.
type Option func(*Store)

// WithSeparator overrides the flat key separator.
func WithSeparator(sep string) Option {
	return func(s *Store) {
		if sep != "" {
			s.separator = sep
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Store) { s.metrics = m }
}

// WithConfig applies a validated configuration: the separator, plus
// cache path and digest mode as defaults for Compact and EagerLoad.
func WithConfig(c config.Config) Option {
	return func(s *Store) {
		s.cfg = c
		if c.Separator != "" {
			s.separator = c.Separator
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		separator: index.DefaultSeparator,
		cfg:       config.Default(),
		log:       logging.NewNopLogger(),
		trees:     make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreOptions adjusts a single StoreTranslations call.
type StoreOptions struct {
	// Separator must equal the store separator when set; storing under
	// a different separator than the one lookups use would corrupt flat
	// keys, so a mismatch is rejected.
	Separator string
}

// StoreTranslations merges data into locale's nested tree. When the
// locale is compacted it is decompacted first; every other locale stays
// compacted.
func (s *Store) StoreTranslations(locale string, data map[string]any, opts ...StoreOptions) error {
	var o StoreOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Separator != "" && o.Separator != s.separator {
		return &index.IndexError{Op: "StoreTranslations", Locale: locale, Cause: index.ErrSeparatorMismatch}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx != nil {
		if tree, ok := s.idx.Decompact(locale); ok {
			s.trees[locale] = tree
		}
	}
	if s.trees[locale] == nil {
		s.trees[locale] = make(map[string]any)
	}
	deepMerge(s.trees[locale], data)
	return nil
}

// LookupOptions adjusts a single Lookup call.
type LookupOptions struct {
	// Separator must equal the store separator when set; see
	// StoreOptions.
	Separator string

	// ResolveLinks disables transitive symbol-link resolution when
	// false is wanted; the zero value resolves links.
	ResolveLinks *bool
}

// Lookup resolves key under the given scope for locale. The key may be
// dotted; scope components are prepended. Symbol links resolve
// transitively unless disabled. The boolean is false for every "not
// found" outcome.
func (s *Store) Lookup(locale, key string, scope []string, opts ...LookupOptions) (any, bool) {
	var o LookupOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Separator != "" && o.Separator != s.separator {
		return nil, false
	}

	flat := s.flatKey(scope, key)
	v, ok := s.lookupFlat(locale, flat)
	if !ok {
		return nil, false
	}
	if o.ResolveLinks != nil && !*o.ResolveLinks {
		return v, true
	}

	// Follow symbol links with a depth guard against cycles.
	for depth := 0; depth < maxLinkDepth; depth++ {
		link, isLink := v.(value.Symlink)
		if !isLink {
			return v, true
		}
		v, ok = s.lookupFlat(locale, string(link))
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// lookupFlat serves one flat key from the compacted or the nested path.
func (s *Store) lookupFlat(locale, flat string) (any, bool) {
	s.mu.RLock()
	idx := s.idx
	tree := s.trees[locale]
	s.mu.RUnlock()

	if idx != nil && idx.Compacted(locale) {
		return idx.Lookup(locale, flat)
	}
	if tree == nil {
		return nil, false
	}
	return nestedLookup(tree, strings.TrimPrefix(flat, locale+s.separator), s.separator)
}

// flatKey joins scope and key with the store separator.
func (s *Store) flatKey(scope []string, key string) string {
	if len(scope) == 0 {
		return key
	}
	parts := make([]string, 0, len(scope)+1)
	parts = append(parts, scope...)
	parts = append(parts, key)
	return strings.Join(parts, s.separator)
}

// Compacted reports whether locale is currently served from the
// compacted path.
func (s *Store) Compacted(locale string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx != nil && s.idx.Compacted(locale)
}

// AvailableLocales lists every locale the store knows, compacted or
// not, in sorted order.
func (s *Store) AvailableLocales() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for locale := range s.trees {
		seen[locale] = struct{}{}
	}
	if s.idx != nil {
		for _, locale := range s.idx.Locales() {
			seen[locale] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for locale := range seen {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Translations returns a nested snapshot of every locale. Compacted
// locales are exported without disturbing the index.
func (s *Store) Translations() map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]any)
	for locale, tree := range s.trees {
		out[locale] = tree
	}
	if s.idx != nil {
		for _, locale := range s.idx.Locales() {
			if tree, ok := s.idx.Export(locale); ok {
				out[locale] = tree
			}
		}
	}
	return out
}

// Reload drops every piece of state, compacted and nested, returning
// the store to pre-init.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees = make(map[string]map[string]any)
	s.idx = nil
	s.log.Info("store reloaded")
}

// Stats describes the store shape.
type Stats struct {
	PendingLocales   int
	CompactedLocales int
	Index            index.Stats
}

// Stats returns the current store shape.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{PendingLocales: len(s.trees)}
	if s.idx != nil {
		st.Index = s.idx.Stats()
		st.CompactedLocales = st.Index.Locales
	}
	return st
}
