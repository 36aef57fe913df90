package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"nf_gateway/internal/gateway"
	"nf_gateway/internal/utils"
)

const maxJSONBody = 1 << 20

// statusFor maps a dispatch failure to its HTTP status
func statusFor(kind gateway.Kind) int {
	switch kind {
	case gateway.KindInvalidRequest:
		return http.StatusBadRequest
	case gateway.KindNotFound, gateway.KindNotConfigured:
		return http.StatusNotFound
	case gateway.KindBackendFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, f *gateway.Failure) {
	if f.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	utils.RespondWithError(w, statusFor(f.Kind), f.Message)
}

// decodeJSON reads a JSON body of at most maxJSONBody bytes into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		utils.RespondWithError(w, http.StatusBadRequest, "request body is required")
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON body")
	}
	return false
}
