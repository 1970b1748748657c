// Package metrics exposes Prometheus instrumentation for the translation
// index. A nil *Registry is valid and records nothing, so the library
// can be used without any metrics wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every metric the index and cache layers record.
type Registry struct {
	registry prometheus.Registerer

	CompactionsTotal    *prometheus.CounterVec
	CompactionDuration  prometheus.Histogram
	LookupsTotal        *prometheus.CounterVec
	DecompactionsTotal  prometheus.Counter
	CacheLoadsTotal     *prometheus.CounterVec
	CacheWriteFailures  prometheus.Counter
	ArenaBytes          prometheus.Gauge
	SchemaKeysTotal     prometheus.Gauge
	ObjectTableEntries  prometheus.Gauge
	CompactedLocales    prometheus.Gauge
}

// NewRegistry registers the index metrics with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{registry: reg}

	r.CompactionsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "i18n_index_compactions_total",
			Help: "Total number of compaction runs",
		},
		[]string{"status"},
	)

	r.CompactionDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "i18n_index_compaction_duration_seconds",
			Help:    "Compaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.LookupsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "i18n_index_lookups_total",
			Help: "Total number of compacted lookups",
		},
		[]string{"status"},
	)

	r.DecompactionsTotal = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "i18n_index_decompactions_total",
			Help: "Total number of single-locale decompactions",
		},
	)

	r.CacheLoadsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "i18n_cache_loads_total",
			Help: "Cache load attempts by outcome",
		},
		[]string{"outcome"},
	)

	r.CacheWriteFailures = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "i18n_cache_write_failures_total",
			Help: "Cache writes that were swallowed after failing",
		},
	)

	r.ArenaBytes = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "i18n_index_arena_bytes",
			Help: "Size of the string arena in bytes",
		},
	)

	r.SchemaKeysTotal = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "i18n_index_schema_keys",
			Help: "Number of flat keys in the shared schema",
		},
	)

	r.ObjectTableEntries = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "i18n_index_object_table_entries",
			Help: "Number of values in the object side table",
		},
	)

	r.CompactedLocales = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "i18n_index_compacted_locales",
			Help: "Number of locales currently served from the compacted path",
		},
	)

	return r
}

// RecordCompaction records one compaction run.
func (r *Registry) RecordCompaction(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.CompactionsTotal.WithLabelValues(status).Inc()
	r.CompactionDuration.Observe(duration.Seconds())
}

// RecordLookup records a compacted lookup outcome ("hit" or "miss").
func (r *Registry) RecordLookup(status string) {
	if r == nil {
		return
	}
	r.LookupsTotal.WithLabelValues(status).Inc()
}

// RecordDecompaction records a single-locale decompaction.
func (r *Registry) RecordDecompaction() {
	if r == nil {
		return
	}
	r.DecompactionsTotal.Inc()
}

// RecordCacheLoad records a cache load attempt. Outcome is one of
// "hit", "miss", "corrupt", "stale".
func (r *Registry) RecordCacheLoad(outcome string) {
	if r == nil {
		return
	}
	r.CacheLoadsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheWriteFailure counts a swallowed cache write failure.
func (r *Registry) RecordCacheWriteFailure() {
	if r == nil {
		return
	}
	r.CacheWriteFailures.Inc()
}

// UpdateIndexSize publishes the steady-state shape of the index.
func (r *Registry) UpdateIndexSize(arenaBytes, schemaKeys, objectEntries, compactedLocales int) {
	if r == nil {
		return
	}
	r.ArenaBytes.Set(float64(arenaBytes))
	r.SchemaKeysTotal.Set(float64(schemaKeys))
	r.ObjectTableEntries.Set(float64(objectEntries))
	r.CompactedLocales.Set(float64(compactedLocales))
}
