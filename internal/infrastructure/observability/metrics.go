package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider call outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeRejected    = "rejected"
	OutcomeRateLimited = "rate_limited"
	OutcomeMalformed   = "malformed"
)

// Collector holds all Prometheus metrics for the application. A nil
// *Collector is valid and records nothing.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec

	// Engine metrics
	GraphBuilds       *prometheus.CounterVec
	GraphNodes        *prometheus.HistogramVec
	StaleViewsDropped *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// NewCollector creates a collector backed by its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of external provider calls by outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "External provider call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8, 16},
			},
			[]string{"provider", "operation"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_breaker_state",
				Help:      "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
			},
			[]string{"provider"},
		),
		GraphBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_builds_total",
				Help:      "Total number of graphs built per view kind",
			},
			[]string{"view"},
		),
		GraphNodes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Node count of built graphs",
				Buckets:   []float64{1, 2, 4, 8, 13, 16, 25, 32},
			},
			[]string{"view"},
		),
		StaleViewsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_views_dropped_total",
				Help:      "Views discarded because a newer request was issued first",
			},
			[]string{"operation"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of open navigation sessions",
			},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.ProviderRequests,
		c.ProviderDuration,
		c.BreakerState,
		c.GraphBuilds,
		c.GraphNodes,
		c.StaleViewsDropped,
		c.ActiveSessions,
		c.CacheHits,
		c.CacheMisses,
	)

	return c
}

// RecordProviderCall records one external call.
func (c *Collector) RecordProviderCall(provider, operation, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.ProviderRequests.WithLabelValues(provider, operation, outcome).Inc()
	c.ProviderDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// SetBreakerState publishes a breaker transition.
func (c *Collector) SetBreakerState(provider string, state int) {
	if c == nil {
		return
	}
	c.BreakerState.WithLabelValues(provider).Set(float64(state))
}

// RecordGraphBuild records a built view.
func (c *Collector) RecordGraphBuild(view string, nodes int) {
	if c == nil {
		return
	}
	c.GraphBuilds.WithLabelValues(view).Inc()
	c.GraphNodes.WithLabelValues(view).Observe(float64(nodes))
}

// RecordStaleDrop counts a superseded view.
func (c *Collector) RecordStaleDrop(operation string) {
	if c == nil {
		return
	}
	c.StaleViewsDropped.WithLabelValues(operation).Inc()
}

// SetActiveSessions publishes the session count.
func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.ActiveSessions.Set(float64(n))
}

// RecordCacheLookup counts a hit or a miss.
func (c *Collector) RecordCacheLookup(cache string, hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.WithLabelValues(cache).Inc()
		return
	}
	c.CacheMisses.WithLabelValues(cache).Inc()
}

// RecordHTTPRequest records a served request.
func (c *Collector) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.registry
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.GetRegistry(), promhttp.HandlerOpts{})
}
