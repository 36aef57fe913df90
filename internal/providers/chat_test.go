package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nf_gateway/internal/config"
	"nf_gateway/internal/utils"
)

func TestOpenAIChat_Generate(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Paris"}}]}`))
	}))
	defer server.Close()

	p, err := NewOpenAIChat(config.LLMConfig{APIBase: server.URL + "/v1/", APIKey: "sk-test", Model: "gpt-4o-mini", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	temp := 0.2
	out, err := p.Generate(context.Background(), "capital of France?", GenerateOptions{System: "be brief", Temperature: &temp, MaxTokens: 16})
	require.NoError(t, err)
	assert.Equal(t, "Paris", out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "be brief"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "capital of France?"}, got.Messages[1])
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.2, *got.Temperature)
	assert.Equal(t, 16, got.MaxTokens)
}

func TestOpenAIChat_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIChat(config.LLMConfig{Model: "gpt-4"})
	assert.Error(t, err)
}

func TestOpenAIChat_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		recoverable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				http.Error(w, `{"error":"nope"}`, tt.status)
			}))
			defer server.Close()

			p, err := NewOpenAIChat(config.LLMConfig{APIBase: server.URL, APIKey: "k", Model: "m"})
			require.NoError(t, err)

			_, err = p.Generate(context.Background(), "hi", GenerateOptions{})
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.recoverable, utils.IsRecoverableError(err))
			assert.Equal(t, 1, calls, "providers never retry")
		})
	}
}

func TestOpenAIChat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p, err := NewOpenAIChat(config.LLMConfig{APIBase: server.URL, APIKey: "k", Model: "m"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "hi", GenerateOptions{})
	assert.ErrorIs(t, err, errEmptyCompletion)
}

func TestAzureOpenAIChat_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt4-prod/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-02-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "model")

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"olá"}}]}`))
	}))
	defer server.Close()

	p, err := NewAzureOpenAIChat(config.LLMConfig{APIBase: server.URL, Deployment: "gpt4-prod", APIKey: "azure-key", APIVersion: "2024-02-01"})
	require.NoError(t, err)
	assert.Equal(t, "azure", p.Name())

	out, err := p.Generate(context.Background(), "oi", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "olá", out)
}

func TestAzureOpenAIChat_InvalidBase(t *testing.T) {
	_, err := NewAzureOpenAIChat(config.LLMConfig{APIBase: "not a url", Deployment: "d", APIKey: "k"})
	assert.Error(t, err)
}

func TestLocalModelChat_Generate(t *testing.T) {
	var got ollamaGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"llama3","response":"pong","done":true}`))
	}))
	defer server.Close()

	p, err := NewLocalModelChat(config.LLMConfig{APIBase: server.URL, Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "local-model", p.Name())

	out, err := p.Generate(context.Background(), "ping", GenerateOptions{MaxTokens: 8})
	require.NoError(t, err)
	assert.Equal(t, "pong", out)

	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "ping", got.Prompt)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 8, got.Options.NumPredict)
}

func TestLocalModelChat_HonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	p, err := NewLocalModelChat(config.LLMConfig{APIBase: server.URL, Model: "llama3"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Generate(ctx, "ping", GenerateOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHeaderCredential(t *testing.T) {
	ctx := context.Background()

	_, err := bearerCredential("").Authenticate(ctx)
	assert.Error(t, err, "a keyed header needs a key")

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	authCtx, err := headerCredential{}.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, authCtx.ApplyToRequest(ctx, req))
	assert.Empty(t, req.Header)

	authCtx, err = headerCredential{header: "api-key", key: "k"}.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, authCtx.ApplyToRequest(ctx, req))
	assert.Equal(t, "k", req.Header.Get("api-key"))
	assert.Error(t, authCtx.ApplyToRequest(ctx, "not a request"))
}
