package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics_ObserveDispatch(t *testing.T) {
	m := NewPrometheusMetrics()

	m.ObserveDispatch("chat", "openai", "ok", 120*time.Millisecond)
	m.ObserveDispatch("chat", "openai", "ok", 80*time.Millisecond)
	m.ObserveDispatch("records", "relational", "not_found", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatches.WithLabelValues("chat", "openai", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("records", "relational", "not_found")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.dispatchLatency))
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics()
	m.ObserveHTTP("/health", http.StatusOK)
	m.ObserveHTTP("/records/{key}", http.StatusNotFound)

	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `nf_gateway_http_responses_total{class="2xx",route="/health"} 1`)
	assert.Contains(t, body, `nf_gateway_http_responses_total{class="4xx",route="/records/{key}"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	m.ObserveDispatch("chat", "x", "ok", time.Second)

	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
