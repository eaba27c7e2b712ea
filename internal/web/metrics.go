package web

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cgseong/emp/internal/dataset"
)

// metrics holds the service's Prometheus instrumentation on its own
// registry, exposed at /metrics.
type metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	datasetRows     *prometheus.GaugeVec
	reloads         prometheus.Counter
	reloadFailures  prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	m := &metrics{registry: registry}

	m.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "emp",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	m.requestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "emp",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path"})

	m.datasetRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "emp",
		Subsystem: "dataset",
		Name:      "rows",
		Help:      "Row counts of the active snapshot by population.",
	}, []string{"population"})

	m.reloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "emp",
		Subsystem: "dataset",
		Name:      "reloads_total",
		Help:      "Successful dataset reloads.",
	})

	m.reloadFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "emp",
		Subsystem: "dataset",
		Name:      "reload_failures_total",
		Help:      "Dataset reloads that failed and kept the old snapshot.",
	})

	return m
}

// observeRequest is wired into the logging middleware.
func (m *metrics) observeRequest(method, path string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.requestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// observeDataset records the active snapshot's population sizes.
func (m *metrics) observeDataset(ds *dataset.Dataset) {
	m.datasetRows.WithLabelValues("eligible").Set(float64(len(ds.Eligible)))
	m.datasetRows.WithLabelValues("employed").Set(float64(len(ds.Employed)))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
