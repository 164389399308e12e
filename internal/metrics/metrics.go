// Package metrics defines the Prometheus collectors exported on the metrics
// server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kscore"

type Metrics struct {
	RendersTotal   *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	ProbesTotal    *prometheus.CounterVec
	WeightUpdates  *prometheus.CounterVec
	StoreErrors    *prometheus.CounterVec

	factory promauto.Factory
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		factory: f,
		RendersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Plots rendered, by variant and output format.",
		}, []string{"variant", "format"}),
		RenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to build a plot including sampling and contouring.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"variant"}),
		ProbesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Tooltip probes answered, by transport and visibility.",
		}, []string{"transport", "visible"}),
		WeightUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weight_updates_total",
			Help:      "Persisted weight changes, by source.",
		}, []string{"source"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Settings store failures, by operation.",
		}, []string{"op"}),
	}
}

// CacheStats is the read side of a surface cache.
type CacheStats interface {
	Hits() uint64
	Misses() uint64
	Len() int
}

// ObserveCache exports cache hit, miss and size figures read at scrape time.
func (m *Metrics) ObserveCache(c CacheStats) {
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "surface_cache_hits_total",
		Help:      "Surface cache lookups served from memory.",
	}, func() float64 { return float64(c.Hits()) })
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "surface_cache_misses_total",
		Help:      "Surface cache lookups that sampled a new field.",
	}, func() float64 { return float64(c.Misses()) })
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "surface_cache_entries",
		Help:      "Surfaces currently held in the cache.",
	}, func() float64 { return float64(c.Len()) })
}
