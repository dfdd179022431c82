package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collectors groups the Prometheus instruments used across the catalog.
type Collectors struct {
	Registry        *prometheus.Registry
	SourceRequests  *prometheus.CounterVec
	SourceLatency   *prometheus.HistogramVec
	ResolverLookups *prometheus.CounterVec
	PagesLoaded     prometheus.Counter
	ActiveSessions  prometheus.Gauge
	RandomPicks     *prometheus.CounterVec
}

// NewCollectors creates and registers every instrument on a fresh registry.
func NewCollectors() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vinylshelf",
			Name:      "source_requests_total",
			Help:      "Record source calls by operation and outcome.",
		}, []string{"op", "collection", "outcome"}),
		SourceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vinylshelf",
			Name:      "source_request_duration_seconds",
			Help:      "Record source call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		ResolverLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vinylshelf",
			Name:      "resolver_lookups_total",
			Help:      "Reference resolver requests by kind and cache result.",
		}, []string{"kind", "result"}),
		PagesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vinylshelf",
			Name:      "pages_loaded_total",
			Help:      "Record pages appended to sessions.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vinylshelf",
			Name:      "active_sessions",
			Help:      "Catalog sessions currently held in memory.",
		}),
		RandomPicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vinylshelf",
			Name:      "random_picks_total",
			Help:      "Random pick requests by outcome.",
		}, []string{"outcome"}),
	}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.SourceRequests,
		c.SourceLatency,
		c.ResolverLookups,
		c.PagesLoaded,
		c.ActiveSessions,
		c.RandomPicks,
	)
	return c
}
