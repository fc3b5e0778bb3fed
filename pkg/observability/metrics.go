package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application on a private
// registry. All Record methods are safe on a nil Collector.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// AI metrics
	AICalls    *prometheus.CounterVec
	AIDuration *prometheus.HistogramVec
	AIRetries  *prometheus.CounterVec

	Commands *prometheus.CounterVec

	// Business metrics
	Events       *prometheus.CounterVec
	NodesCreated prometheus.Counter
	NodesDeleted prometheus.Counter
	Reports      *prometheus.CounterVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of document store operations",
		}, []string{"operation", "status"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		AICalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_calls_total",
			Help:      "Total number of AI generation calls",
		}, []string{"operation", "status"}),
		AIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_call_duration_seconds",
			Help:      "AI generation call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"operation"}),
		AIRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_retries_total",
			Help:      "Total number of AI calls retried after a rate limit",
		}, []string{"operation"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of commands handled",
		}, []string{"command", "status"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Total number of domain events published",
		}, []string{"type"}),
		NodesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Total number of nodes created",
		}),
		NodesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_deleted_total",
			Help:      "Total number of nodes removed by cascade deletes",
		}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Total number of periodic reports generated",
		}, []string{"type"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.AICalls,
		c.AIDuration,
		c.AIRetries,
		c.Commands,
		c.Events,
		c.NodesCreated,
		c.NodesDeleted,
		c.Reports,
		c.CacheHits,
		c.CacheMisses,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTP records one served request.
func (c *Collector) RecordHTTP(method, route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordStore records one document store operation.
func (c *Collector) RecordStore(operation string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.StoreOperations.WithLabelValues(operation, status(err)).Inc()
	c.StoreDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordAICall records one AI call including its retries.
func (c *Collector) RecordAICall(operation string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.AICalls.WithLabelValues(operation, status(err)).Inc()
	c.AIDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordAIRetry counts a rate-limited attempt that will be retried.
func (c *Collector) RecordAIRetry(operation string) {
	if c == nil {
		return
	}
	c.AIRetries.WithLabelValues(operation).Inc()
}

// RecordCommand records one command bus dispatch.
func (c *Collector) RecordCommand(name string, _ time.Duration, err error) {
	if c == nil {
		return
	}
	c.Commands.WithLabelValues(name, status(err)).Inc()
}

// RecordEvent counts a published domain event. n is the number of nodes
// created or deleted for node events and is ignored otherwise.
func (c *Collector) RecordEvent(eventType string, n int) {
	if c == nil {
		return
	}
	c.Events.WithLabelValues(eventType).Inc()
	switch eventType {
	case "node.created":
		c.NodesCreated.Add(float64(n))
	case "node.cascade_deleted":
		c.NodesDeleted.Add(float64(n))
	}
}

// RecordReport counts a generated report.
func (c *Collector) RecordReport(reportType string) {
	if c == nil {
		return
	}
	c.Reports.WithLabelValues(reportType).Inc()
}

// RecordCache counts a cache lookup.
func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
