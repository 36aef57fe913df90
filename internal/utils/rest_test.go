package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		message string
	}{
		{
			name:    "invalid request",
			code:    http.StatusBadRequest,
			message: "prompt must not be empty",
		},
		{
			name:    "forbidden",
			code:    http.StatusForbidden,
			message: "Invalid or missing API Key",
		},
		{
			name:    "capability not configured",
			code:    http.StatusNotFound,
			message: "capability not configured: storage",
		},
		{
			name:    "backend failure",
			code:    http.StatusBadGateway,
			message: "model API returned status 503: overloaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			RespondWithError(w, tt.code, tt.message)

			if w.Code != tt.code {
				t.Errorf("RespondWithError() status = %d, want %d", w.Code, tt.code)
			}

			contentType := w.Header().Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("RespondWithError() Content-Type = %s, want application/json", contentType)
			}

			// The body carries exactly one field
			var raw map[string]any
			if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if len(raw) != 1 || raw["detail"] != tt.message {
				t.Errorf("RespondWithError() body = %v, want {detail: %s}", raw, tt.message)
			}
		})
	}
}

func TestRespondWithJSON(t *testing.T) {
	t.Run("struct payload", func(t *testing.T) {
		w := httptest.NewRecorder()

		payload := struct {
			APIKey         string `json:"api_key"`
			UserIdentifier string `json:"user_identifier"`
		}{
			APIKey:         "sk-0123",
			UserIdentifier: "developer_user",
		}

		if err := RespondWithJSON(w, http.StatusOK, payload); err != nil {
			t.Errorf("RespondWithJSON() error = %v, want nil", err)
		}

		if w.Code != http.StatusOK {
			t.Errorf("RespondWithJSON() status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]string
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response["api_key"] != "sk-0123" || response["user_identifier"] != "developer_user" {
			t.Errorf("RespondWithJSON() body = %v", response)
		}
	})

	t.Run("map payload", func(t *testing.T) {
		w := httptest.NewRecorder()

		payload := map[string]any{
			"active_keys_count": 2,
			"keys_users":        []string{"alice", "bob"},
		}

		if err := RespondWithJSON(w, http.StatusCreated, payload); err != nil {
			t.Errorf("RespondWithJSON() error = %v, want nil", err)
		}

		if w.Code != http.StatusCreated {
			t.Errorf("RespondWithJSON() status = %d, want %d", w.Code, http.StatusCreated)
		}

		var response map[string]any
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if int(response["active_keys_count"].(float64)) != 2 {
			t.Errorf("RespondWithJSON() active_keys_count = %v, want 2", response["active_keys_count"])
		}
	})

	t.Run("unencodable payload", func(t *testing.T) {
		w := httptest.NewRecorder()

		if err := RespondWithJSON(w, http.StatusOK, map[string]any{"ch": make(chan int)}); err == nil {
			t.Error("RespondWithJSON() error = nil, want encoding error")
		}
	})
}
