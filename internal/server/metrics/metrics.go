// Package metrics exposes Prometheus counters for the catalog lifecycle.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gardenbook"

// Operation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

type Metrics struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	destroyFailures *prometheus.CounterVec
	categoryRefused prometheus.Counter
	requests        *prometheus.CounterVec
}

// New builds a Metrics on a private registry that also carries the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "specimen_operations_total",
			Help:      "Specimen lifecycle operations by kind, operation and outcome.",
		}, []string{"kind", "op", "outcome"}),
		destroyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_destroy_failures_total",
			Help:      "Asset deletes that failed after all retries and left an orphan.",
		}, []string{"reason"}),
		categoryRefused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_delete_refused_total",
			Help:      "Category deletes refused because specimens still reference the name.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.operations, m.destroyFailures, m.categoryRefused, m.requests,
	)
	return m
}

func (m *Metrics) Operation(kind, op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(kind, op, outcome).Inc()
}

func (m *Metrics) DestroyFailed(reason string) {
	if m == nil {
		return
	}
	m.destroyFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) CategoryDeleteRefused() {
	if m == nil {
		return
	}
	m.categoryRefused.Inc()
}

// InstrumentHandler counts requests served by next.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerCounter(m.requests, next)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
