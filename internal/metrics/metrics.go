package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records dispatch outcomes and exposes them over HTTP.
type Metrics interface {
	ObserveDispatch(domain, provider, outcome string, elapsed time.Duration)
	ObserveHTTP(route string, status int)
	HTTPHandler() http.Handler
}

// NoopMetrics discards observations.
type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (m *NoopMetrics) ObserveDispatch(domain, provider, outcome string, elapsed time.Duration) {}

func (m *NoopMetrics) ObserveHTTP(route string, status int) {}

func (m *NoopMetrics) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// PrometheusMetrics keeps its collectors on a private registry so several
// instances (one per test) never collide.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	dispatches      *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
	httpResponses   *prometheus.CounterVec
}

func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,

		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nf_gateway_dispatch_total",
			Help: "Total number of dispatched requests by domain, provider and outcome",
		}, []string{"domain", "provider", "outcome"}),

		// up to 2 minutes for LLM responses
		dispatchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nf_gateway_dispatch_duration_seconds",
			Help:    "Dispatch latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"domain"}),

		httpResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nf_gateway_http_responses_total",
			Help: "Total number of HTTP responses by route and status class",
		}, []string{"route", "class"}),
	}
}

func (m *PrometheusMetrics) ObserveDispatch(domain, provider, outcome string, elapsed time.Duration) {
	m.dispatches.WithLabelValues(domain, provider, outcome).Inc()
	m.dispatchLatency.WithLabelValues(domain).Observe(elapsed.Seconds())
}

func (m *PrometheusMetrics) ObserveHTTP(route string, status int) {
	m.httpResponses.WithLabelValues(route, statusClass(status)).Inc()
}

func (m *PrometheusMetrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
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
