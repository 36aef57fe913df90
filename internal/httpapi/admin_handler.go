package httpapi

import (
	"errors"
	"net/http"

	"nf_gateway/internal/auth"
	"nf_gateway/internal/logging"
	"nf_gateway/internal/middleware"
	"nf_gateway/internal/utils"
)

// NewAPIKeyResponse is the reply of POST /admin/generate_api_key. This is the
// only time the plaintext key is returned.
type NewAPIKeyResponse struct {
	APIKey         string `json:"api_key"`
	UserIdentifier string `json:"user_identifier"`
	KeyID          string `json:"key_id"`
}

// ListAPIKeysResponse is the reply of GET /admin/list_api_keys. Keys are
// listed by ID; plaintext keys are never returned.
type ListAPIKeysResponse struct {
	ActiveKeysCount int               `json:"active_keys_count"`
	KeysUsers       map[string]string `json:"keys_users"`
}

func (d *Dependencies) handleGenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipal(r.Context())
	owner := r.URL.Query().Get("user_identifier")

	key, rec, err := d.Guard.IssueKey(r.Context(), principal, owner)
	switch {
	case errors.Is(err, auth.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Admin privileges required to generate API keys")
		return
	case errors.Is(err, auth.ErrInvalidOwner):
		utils.RespondWithError(w, http.StatusBadRequest, "user_identifier is required")
		return
	case err != nil:
		logging.Errorf("Failed to issue API key: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate API key")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, NewAPIKeyResponse{
		APIKey:         key,
		UserIdentifier: rec.Owner,
		KeyID:          rec.ID,
	})
}

func (d *Dependencies) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipal(r.Context())

	recs, err := d.Guard.ListKeys(r.Context(), principal)
	if errors.Is(err, auth.ErrForbidden) {
		utils.RespondWithError(w, http.StatusForbidden, "Admin privileges required to list API keys")
		return
	}
	if err != nil {
		logging.Errorf("Failed to list API keys: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	users := make(map[string]string, len(recs))
	for _, rec := range recs {
		users[rec.ID] = rec.Owner
	}
	utils.RespondWithJSON(w, http.StatusOK, ListAPIKeysResponse{
		ActiveKeysCount: len(recs),
		KeysUsers:       users,
	})
}
