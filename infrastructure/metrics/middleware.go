// Package metrics exposes Prometheus collectors for inbound HTTP requests and
// outbound downstream calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers can coexist in one
// process (tests in particular).
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge

	downstreamCalls    *prometheus.CounterVec
	downstreamDuration *prometheus.HistogramVec
	breakerState       *prometheus.GaugeVec
}

// New registers the collectors under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		downstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downstream_requests_total",
			Help:      "Calls to downstream services by resource, operation and outcome.",
		}, []string{"resource", "operation", "outcome"}),
		downstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "downstream_request_duration_seconds",
			Help:      "Downstream call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "operation"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downstream_circuit_open",
			Help:      "1 while the resource's circuit breaker is open.",
		}, []string{"resource"}),
	}

	reg.MustRegister(
		m.requests, m.requestDuration, m.inFlight,
		m.downstreamCalls, m.downstreamDuration, m.breakerState,
	)
	return m
}

// Middleware records request count, latency and in-flight requests. The
// route template is used as label to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveDownstream records one downstream call.
func (m *Metrics) ObserveDownstream(resource, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.downstreamCalls.WithLabelValues(resource, operation, outcome).Inc()
	m.downstreamDuration.WithLabelValues(resource, operation).Observe(d.Seconds())
}

// SetCircuitOpen flags the breaker state for resource.
func (m *Metrics) SetCircuitOpen(resource string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.breakerState.WithLabelValues(resource).Set(v)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
