package middleware

import (
	"net/http"

	"nf_gateway/internal/ratelimit"
	"nf_gateway/internal/utils"
)

const adminRateKey = "admin"

// RateLimit applies limiter per API key. It must run after APIKeyMiddleware.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := adminRateKey
			if p, ok := GetPrincipal(r.Context()); ok && p.KeyID != "" {
				key = p.KeyID
			}
			if !limiter.Allow(r.Context(), key) {
				w.Header().Set("Retry-After", "60")
				utils.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
