package backend

import (
	"github.com/Shopify/i18n/pkg/cache"
	"github.com/Shopify/i18n/pkg/index"
	"github.com/Shopify/i18n/pkg/logging"
)

// CompactOptions controls Compact and EagerLoad.
type CompactOptions struct {
	// CachePath is the cache file location. Empty disables caching.
	CachePath string

	// CacheDigest switches the fingerprint to file-content digests.
	CacheDigest bool

	// Paths is the ordered source file list the fingerprint covers.
	// EagerLoad fills it from the loader.
	Paths []string

	// Rules re-extracts executable rules after a cache load. Optional.
	Rules RuleExtractor
}

// Compact finalizes the index for every currently loaded locale,
// optionally backed by a cache file. Calling it when every locale is
// already compacted is a no-op. When some locales are compacted and new
// ones are pending, everything is decompacted and recompacted from
// scratch: remapping packed references across a grown schema is not
// worth the complexity for an operation that runs once per boot.
func (s *Store) Compact(opts CompactOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactLocked(s.withConfigDefaults(opts))
}

// withConfigDefaults fills unset cache options from the store config.
func (s *Store) withConfigDefaults(opts CompactOptions) CompactOptions {
	if opts.CachePath == "" {
		opts.CachePath = s.cfg.CachePath
		opts.CacheDigest = opts.CacheDigest || s.cfg.CacheDigest
	}
	return opts
}

func (s *Store) compactLocked(opts CompactOptions) error {
	if s.idx != nil && len(s.trees) == 0 {
		return nil // idempotent
	}

	if s.idx != nil {
		// Mixed state: rebuild from scratch.
		for _, locale := range s.idx.Locales() {
			tree, ok := s.idx.Decompact(locale)
			if !ok {
				continue
			}
			if existing := s.trees[locale]; existing != nil {
				deepMerge(tree, existing)
			}
			s.trees[locale] = tree
		}
		s.idx = nil
	}

	fingerprint := s.fingerprint(opts)
	if fingerprint != "" {
		if s.loadCacheLocked(opts, fingerprint) {
			return nil
		}
	}

	ix, err := index.Compact(s.trees,
		index.WithSeparator(s.separator),
		index.WithLogger(s.log),
		index.WithMetrics(s.metrics),
	)
	if err != nil {
		return err
	}
	s.idx = ix
	s.trees = make(map[string]map[string]any)

	if fingerprint != "" {
		cache.Save(opts.CachePath, ix.ToSnapshot(), fingerprint, s.log, s.metrics)
	}
	return nil
}

// EagerLoad loads every source file through the loader, then compacts.
// On a cache hit the load step is skipped entirely.
func (s *Store) EagerLoad(loader Loader, opts CompactOptions) error {
	opts = s.withConfigDefaults(opts)
	if loader != nil && len(opts.Paths) == 0 {
		opts.Paths = loader.Paths()
	}

	s.mu.Lock()
	if fingerprint := s.fingerprint(opts); fingerprint != "" {
		if s.loadCacheLocked(opts, fingerprint) {
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()

	if loader != nil {
		if err := loader.Load(s); err != nil {
			return err
		}
	}
	return s.Compact(opts)
}

// fingerprint computes the source fingerprint, or "" when caching is
// disabled or the sources cannot be digested (the cache is advisory, so
// a stat failure only disables it).
func (s *Store) fingerprint(opts CompactOptions) string {
	if opts.CachePath == "" {
		return ""
	}
	fp, err := cache.Fingerprint(opts.Paths, opts.CacheDigest)
	if err != nil {
		s.log.Warn("cache disabled for this run", logging.Err(err))
		return ""
	}
	return fp
}

// loadCacheLocked tries to install the index from the cache file.
func (s *Store) loadCacheLocked(opts CompactOptions, fingerprint string) bool {
	snap, ok := cache.Load(opts.CachePath, fingerprint, s.log, s.metrics)
	if !ok {
		return false
	}

	ix, err := index.FromSnapshot(snap,
		index.WithSeparator(s.separator),
		index.WithLogger(s.log),
		index.WithMetrics(s.metrics),
	)
	if err != nil {
		s.log.Warn("cache discarded", logging.Err(err))
		s.metrics.RecordCacheLoad("corrupt")
		return false
	}

	if opts.Rules != nil {
		rules, err := opts.Rules.ExtractRules()
		if err != nil {
			s.log.Warn("rule re-extraction failed; placeholders remain", logging.Err(err))
		} else if patched := ix.PatchRules(rules); patched > 0 {
			s.log.Debug("rules patched", logging.Int("count", patched))
		}
	}

	s.idx = ix
	s.trees = make(map[string]map[string]any)
	return true
}
