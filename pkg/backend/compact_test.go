package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shopify/i18n/pkg/config"
	"github.com/Shopify/i18n/pkg/value"
)

// writeSources creates fake source files so the fingerprint has
// something to digest.
func writeSources(t *testing.T, dir string) []string {
	t.Helper()
	paths := []string{
		filepath.Join(dir, "en.yml"),
		filepath.Join(dir, "fr.yml"),
	}
	for _, p := range paths {
		require.NoError(t, os.WriteFile(p, []byte("stub"), 0o644))
	}
	return paths
}

func TestCompactWithCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir)
	cachePath := filepath.Join(dir, "i18n.cache")
	opts := CompactOptions{CachePath: cachePath, Paths: paths}

	s1 := New()
	require.NoError(t, s1.StoreTranslations("en", map[string]any{"msg": "x"}))
	require.NoError(t, s1.Compact(opts))
	arenaBytes := s1.Stats().Index.ArenaBytes

	_, err := os.Stat(cachePath)
	require.NoError(t, err, "compaction must have written the cache")

	// A fresh store with the same sources loads the cache instead of
	// compacting.
	s2 := New()
	require.NoError(t, s2.Compact(opts))

	v, ok := s2.Lookup("en", "msg", nil)
	require.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, arenaBytes, s2.Stats().Index.ArenaBytes,
		"arena byte length equals the original")
}

func TestStaleCacheTriggersRecompaction(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir)
	cachePath := filepath.Join(dir, "i18n.cache")
	opts := CompactOptions{CachePath: cachePath, Paths: paths, CacheDigest: true}

	s1 := New()
	require.NoError(t, s1.StoreTranslations("en", map[string]any{"msg": "old"}))
	require.NoError(t, s1.Compact(opts))

	// Source change invalidates the fingerprint.
	require.NoError(t, os.WriteFile(paths[0], []byte("changed"), 0o644))

	s2 := New()
	require.NoError(t, s2.StoreTranslations("en", map[string]any{"msg": "new"}))
	require.NoError(t, s2.Compact(opts))

	v, ok := s2.Lookup("en", "msg", nil)
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestCorruptCacheIsAMiss(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir)
	cachePath := filepath.Join(dir, "i18n.cache")
	require.NoError(t, os.WriteFile(cachePath, []byte("not a frame"), 0o644))

	s := New()
	require.NoError(t, s.StoreTranslations("en", map[string]any{"msg": "x"}))
	require.NoError(t, s.Compact(CompactOptions{CachePath: cachePath, Paths: paths}))

	v, ok := s.Lookup("en", "msg", nil)
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

type recordingLoader struct {
	paths []string
	loads int
	trees map[string]map[string]any
}

func (l *recordingLoader) Paths() []string { return l.paths }

func (l *recordingLoader) Load(s *Store) error {
	l.loads++
	for locale, tree := range l.trees {
		if err := s.StoreTranslations(locale, tree); err != nil {
			return err
		}
	}
	return nil
}

func TestEagerLoadSkipsLoadOnCacheHit(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir)
	cachePath := filepath.Join(dir, "i18n.cache")
	opts := CompactOptions{CachePath: cachePath}

	loader := &recordingLoader{
		paths: paths,
		trees: map[string]map[string]any{"en": {"msg": "x"}},
	}

	s1 := New()
	require.NoError(t, s1.EagerLoad(loader, opts))
	assert.Equal(t, 1, loader.loads)

	s2 := New()
	require.NoError(t, s2.EagerLoad(loader, opts))
	assert.Equal(t, 1, loader.loads, "cache hit must skip the load step entirely")

	v, ok := s2.Lookup("en", "msg", nil)
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

type staticRules struct {
	rules map[string]map[string]value.Rule
}

func (r staticRules) ExtractRules() (map[string]map[string]value.Rule, error) {
	return r.rules, nil
}

func TestRulesPatchedAfterCacheLoad(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir)
	cachePath := filepath.Join(dir, "i18n.cache")

	rule := value.Rule(func(string, map[string]any) any { return "plural!" })

	s1 := New()
	require.NoError(t, s1.StoreTranslations("en", map[string]any{"rule": rule}))
	require.NoError(t, s1.Compact(CompactOptions{CachePath: cachePath, Paths: paths}))

	// Loaded without an extractor: the placeholder leaks, documented.
	s2 := New()
	require.NoError(t, s2.Compact(CompactOptions{CachePath: cachePath, Paths: paths}))
	v, ok := s2.Lookup("en", "rule", nil)
	require.True(t, ok)
	assert.True(t, value.IsPlaceholder(v))

	// Loaded with an extractor: the live rule is patched back in.
	s3 := New()
	require.NoError(t, s3.Compact(CompactOptions{
		CachePath: cachePath,
		Paths:     paths,
		Rules:     staticRules{rules: map[string]map[string]value.Rule{"en": {"rule": rule}}},
	}))
	v, ok = s3.Lookup("en", "rule", nil)
	require.True(t, ok)
	got, isRule := v.(value.Rule)
	require.True(t, isRule)
	assert.Equal(t, "plural!", got("", nil))
}

func TestCompactWithoutCachePath(t *testing.T) {
	s := New()
	require.NoError(t, s.StoreTranslations("en", map[string]any{"msg": "x"}))
	require.NoError(t, s.Compact(CompactOptions{}))
	assert.True(t, s.Compacted("en"))
}

func TestConfigSuppliesCacheDefaults(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir)
	cachePath := filepath.Join(dir, "i18n.cache")

	cfg := config.Default()
	cfg.CachePath = cachePath

	s := New(WithConfig(cfg))
	require.NoError(t, s.StoreTranslations("en", map[string]any{"msg": "x"}))
	require.NoError(t, s.Compact(CompactOptions{Paths: paths}))

	_, err := os.Stat(cachePath)
	assert.NoError(t, err, "the configured cache path is used when options leave it unset")
}
