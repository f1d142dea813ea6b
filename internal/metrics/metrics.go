// Package metrics exposes Prometheus collectors for stub runner batches and
// mock server traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const MetricsNamespace = "stubrunner"

// Metrics holds the collectors of one process. Collectors live on a private
// registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	stubsStarted   *prometheus.CounterVec
	startFailures  *prometheus.CounterVec
	stubsRunning   prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	resolveSeconds prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stubsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "stubs_started_total",
			Help:      "Count of mock servers started",
		}, []string{"alias"}),
		startFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "stub_failures_total",
			Help:      "Count of per-collaborator failures",
		}, []string{"alias", "kind"}),
		stubsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "stubs_running",
			Help:      "Number of mock servers currently running",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "stub_requests_total",
			Help:      "Count of requests answered by mock servers",
		}, []string{"alias", "result"}),
		resolveSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "artifact_resolution_seconds",
			Help:      "Time spent resolving and unpacking the stub artifact",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordStarted(alias string) {
	m.stubsStarted.WithLabelValues(alias).Inc()
	m.stubsRunning.Inc()
}

func (m *Metrics) RecordStopped(alias string) {
	m.stubsRunning.Dec()
}

func (m *Metrics) RecordFailure(alias, kind string) {
	m.startFailures.WithLabelValues(alias, kind).Inc()
}

// RecordRequest counts one mock server request.
func (m *Metrics) RecordRequest(alias string, matched bool) {
	result := "unmatched"
	if matched {
		result = "matched"
	}
	m.requestsTotal.WithLabelValues(alias, result).Inc()
}

func (m *Metrics) ObserveResolution(seconds float64) {
	m.resolveSeconds.Observe(seconds)
}
