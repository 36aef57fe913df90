package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"nf_gateway/internal/auth"
	"nf_gateway/internal/logging"
	"nf_gateway/internal/utils"
)

// APIKeyHeader is the header carrying the caller's credential
const APIKeyHeader = "X-API-KEY"

// extractAPIKey reads X-API-KEY, falling back to an Authorization bearer token
func extractAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get(APIKeyHeader); apiKey != "" {
		return apiKey
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// APIKeyMiddleware authenticates the caller and adds the principal to the
// request context. Ordinary and administrative keys both pass.
func APIKeyMiddleware(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			principal, err := guard.Authenticate(r.Context(), key)
			if errors.Is(err, auth.ErrForbidden) {
				logging.Debugf("Rejected API key %s on %s", utils.MaskKey(key), r.URL.Path)
				utils.RespondWithError(w, http.StatusForbidden, "Could not validate credentials")
				return
			}
			if err != nil {
				logging.Errorf("Error validating API key: %v", err)
				utils.RespondWithError(w, http.StatusInternalServerError, "Error validating API key")
				return
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects callers that are authenticated but not administrative.
// It must run after APIKeyMiddleware.
func AdminOnly(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := GetPrincipal(r.Context())
			if err := guard.RequireAdmin(principal); err != nil {
				utils.RespondWithError(w, http.StatusForbidden, "Admin privileges required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal retrieves the authenticated caller from the request context
func GetPrincipal(ctx context.Context) (*auth.Principal, bool) {
	return auth.PrincipalFromContext(ctx)
}
