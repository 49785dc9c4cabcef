package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the admin query layer.
// Every method is safe to call on a nil *Collector, which records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Query cache metrics
	CacheLookups    *prometheus.CounterVec
	BackendOps      *prometheus.CounterVec
	RESTRetries     prometheus.Counter
	BackendSelected *prometheus.GaugeVec
	Selections      *prometheus.CounterVec

	// Query metrics
	QueryDuration *prometheus.HistogramVec
	QueryTotal    *prometheus.CounterVec

	// Snapshot metrics
	SnapshotAge     prometheus.Gauge
	RefreshFailures prometheus.Counter
}

// NewCollector creates a collector with its own registry under namespace
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
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_lookups_total",
				Help:      "Query cache lookups by family and result (hit or miss)",
			},
			[]string{"family", "result"},
		),
		BackendOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_backend_operations_total",
				Help:      "Cache backend operations by backend, operation and outcome",
			},
			[]string{"backend", "operation", "outcome"},
		),
		RESTRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_rest_retries_total",
				Help:      "Retried requests against the REST cache endpoint",
			},
		),
		BackendSelected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_backend_selected",
				Help:      "1 for the currently selected cache backend",
			},
			[]string{"backend"},
		),
		Selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_backend_selections_total",
				Help:      "Cache backend selections performed",
			},
			[]string{"backend"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Admin query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		QueryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Admin queries by outcome",
			},
			[]string{"query", "status"},
		),
		SnapshotAge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "snapshot_age_seconds",
				Help:      "Age of the snapshot that served the last recomputed query",
			},
		),
		RefreshFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_refresh_failures_total",
				Help:      "Background snapshot refresh triggers that failed",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheLookups,
		c.BackendOps,
		c.RESTRetries,
		c.BackendSelected,
		c.Selections,
		c.QueryDuration,
		c.QueryTotal,
		c.SnapshotAge,
		c.RefreshFailures,
	)

	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns the /metrics HTTP handler for this collector
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served HTTP request
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCacheLookup records a query-layer cache hit or miss for family
func (c *Collector) RecordCacheLookup(family string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(family, result).Inc()
}

// RecordBackendOp records the outcome of a single backend operation
func (c *Collector) RecordBackendOp(backend, operation, outcome string) {
	if c == nil {
		return
	}
	c.BackendOps.WithLabelValues(backend, operation, outcome).Inc()
}

// RecordRESTRetry counts one retried REST cache request
func (c *Collector) RecordRESTRetry() {
	if c == nil {
		return
	}
	c.RESTRetries.Inc()
}

// RecordBackendSelected marks backend as the active one
func (c *Collector) RecordBackendSelected(backend string, all ...string) {
	if c == nil {
		return
	}
	for _, name := range all {
		c.BackendSelected.WithLabelValues(name).Set(0)
	}
	c.BackendSelected.WithLabelValues(backend).Set(1)
	c.Selections.WithLabelValues(backend).Inc()
}

// ObserveQuery records an admin query duration and outcome
func (c *Collector) ObserveQuery(query string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.QueryDuration.WithLabelValues(query).Observe(duration.Seconds())
	c.QueryTotal.WithLabelValues(query, status).Inc()
}

// SetSnapshotAge records the age of the snapshot last used for a recompute
func (c *Collector) SetSnapshotAge(seconds float64) {
	if c == nil {
		return
	}
	c.SnapshotAge.Set(seconds)
}

// RecordRefreshFailure counts one failed background refresh trigger
func (c *Collector) RecordRefreshFailure() {
	if c == nil {
		return
	}
	c.RefreshFailures.Inc()
}
