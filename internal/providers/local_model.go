package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"nf_gateway/internal/config"
)

// LocalModelChat implements ChatProvider for a self-hosted model served with
// the Ollama generate API.
type LocalModelChat struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// NewLocalModelChat creates a new local model provider
func NewLocalModelChat(cfg config.LLMConfig) (ChatProvider, error) {
	base, err := url.Parse(strings.TrimRight(cfg.APIBase, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api_base %q", cfg.APIBase)
	}

	return &LocalModelChat{
		model:   cfg.Model,
		baseURL: base.String(),
		client:  newHTTPClient(cfg.Timeout),
	}, nil
}

// Name returns the provider name
func (p *LocalModelChat) Name() string {
	return config.ChatLocalModel
}

// Generate requests a non-streaming completion
func (p *LocalModelChat) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req := ollamaGenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		System: opts.System,
	}
	if opts.Temperature != nil || opts.MaxTokens > 0 {
		req.Options = &ollamaOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens}
	}

	var resp ollamaGenerateResponse
	if err := postJSON(ctx, p.client, headerCredential{}, p.baseURL+"/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Close cleans up resources
func (p *LocalModelChat) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
