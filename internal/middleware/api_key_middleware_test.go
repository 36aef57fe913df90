package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nf_gateway/internal/auth"
	"nf_gateway/internal/gateway"
	"nf_gateway/internal/metrics"
	"nf_gateway/internal/ratelimit"
)

const adminKey = "supersecretadminkey123"

func newGuard(t *testing.T) *auth.Guard {
	t.Helper()
	g := auth.NewGuard(adminKey, auth.NewMemoryKeyStore())
	require.NoError(t, g.Seed(context.Background(), map[string]string{"dev_key_123": "developer_user"}))
	return g
}

func principalEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			t.Error("principal not found in context")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(string(p.Privilege) + ":" + p.Owner))
	})
}

func TestAPIKeyMiddleware_Success(t *testing.T) {
	handler := APIKeyMiddleware(newGuard(t))(principalEcho(t))

	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"ordinary via X-API-KEY", "X-API-KEY", "dev_key_123", "ordinary:developer_user"},
		{"ordinary via lower-case header", "x-api-key", "dev_key_123", "ordinary:developer_user"},
		{"ordinary via bearer", "Authorization", "Bearer dev_key_123", "ordinary:developer_user"},
		{"admin key on ordinary route", "X-API-KEY", adminKey, "administrative:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/records/k", nil)
			req.Header.Set(tt.header, tt.value)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestAPIKeyMiddleware_Rejects(t *testing.T) {
	handler := APIKeyMiddleware(newGuard(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"missing key", "", ""},
		{"unknown key", "X-API-KEY", "invalid-key"},
		{"basic auth scheme", "Authorization", "Basic ZGV2OmtleQ=="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/records/k", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, w.Body.String())
		})
	}
}

func TestAdminOnly(t *testing.T) {
	guard := newGuard(t)
	handler := APIKeyMiddleware(guard)(AdminOnly(guard)(principalEcho(t)))

	req := httptest.NewRequest(http.MethodGet, "/admin/list_api_keys", nil)
	req.Header.Set(APIKeyHeader, adminKey)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/list_api_keys", nil)
	req.Header.Set(APIKeyHeader, "dev_key_123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"detail":"Admin privileges required"}`, w.Body.String())
}

func TestAdminOnly_WithoutPrincipal(t *testing.T) {
	handler := AdminOnly(newGuard(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/list_api_keys", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit(t *testing.T) {
	guard := newGuard(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := APIKeyMiddleware(guard)(RateLimit(ratelimit.NewLocalLimiter(2))(ok))

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/llm/chat/invoke", nil)
		req.Header.Set(APIKeyHeader, key)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("dev_key_123"))
	assert.Equal(t, http.StatusOK, send("dev_key_123"))
	assert.Equal(t, http.StatusTooManyRequests, send("dev_key_123"))
	assert.Equal(t, http.StatusOK, send(adminKey), "admin has its own bucket")
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = gateway.RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
}

func TestAccessLog_CountsMatchedRoute(t *testing.T) {
	m := metrics.NewPrometheusMetrics()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AccessLog(m)(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	w := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `nf_gateway_http_responses_total{class="2xx",route="GET /health"} 1`)
	assert.Contains(t, w.Body.String(), `nf_gateway_http_responses_total{class="4xx",route="unmatched"} 1`)
}
