// Package metrics exposes the pipeline's operational counters over
// github.com/prometheus/client_golang, the way vjache-cie's `cie index`
// command optionally serves `/metrics` over promhttp on a flag-enabled
// listen address rather than always registering against the global
// default registry — luals does the same, since most invocations (an
// editor's embedded LSP child process) never want a listener at all.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of gauges/counters internal/engine updates around
// each Pipeline run (the cache counters through semantic.ParkAll's
// observer); nothing observes ResolveQueueDrains. One instance per
// process, threaded through wherever internal/engine drives a Pipeline.
type Metrics struct {
	reg *prometheus.Registry

	FilesAnalyzed      prometheus.Counter
	AnalysisDuration   prometheus.Histogram
	ResolveQueueDrains prometheus.Histogram
	ResolveQueueStuck  prometheus.Gauge
	InferCacheHits     prometheus.Counter
	InferCacheMisses   prometheus.Counter
}

// New builds a Metrics against a fresh, private Registry — never the
// prometheus global default, so multiple Analysis instances in the same
// process (tests, or an embedder running several workspaces) don't
// collide registering the same metric name twice.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		FilesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "luals", Name: "files_analyzed_total",
			Help: "Total number of files run through the compilation pipeline.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "luals", Name: "file_analysis_seconds",
			Help: "Wall-clock time to run one file through Decl/Doc/Bind/Flow.",
		}),
		ResolveQueueDrains: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "luals", Name: "resolve_queue_drain_passes",
			Help:    "Number of fixed-point passes ResolveQueue.Drain needed per batch.",
			Buckets: prometheus.LinearBuckets(0, 1, 9),
		}),
		ResolveQueueStuck: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "luals", Name: "resolve_queue_stuck",
			Help: "Dependency keys still parked after the last Drain exhausted maxResolvePasses.",
		}),
		InferCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "luals", Name: "infer_cache_hits_total",
			Help: "LuaInferCache lookups satisfied without re-deriving the expression.",
		}),
		InferCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "luals", Name: "infer_cache_misses_total",
			Help: "LuaInferCache lookups that required inferExprUncached.",
		}),
	}
	reg.MustRegister(
		m.FilesAnalyzed, m.AnalysisDuration, m.ResolveQueueDrains,
		m.ResolveQueueStuck, m.InferCacheHits, m.InferCacheMisses,
	)
	return m
}

// Hit and Miss satisfy internal/semantic's CacheObserver, so a Metrics
// can be passed directly to semantic.ParkAll as the LuaInferCache
// observer without this package importing internal/semantic.
func (m *Metrics) Hit()  { m.InferCacheHits.Inc() }
func (m *Metrics) Miss() { m.InferCacheMisses.Inc() }

// Handler returns the promhttp handler for this Metrics' private
// registry, for a caller to mount at "/metrics" when
// --metrics-addr is set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
