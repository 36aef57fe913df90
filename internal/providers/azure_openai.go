package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"nf_gateway/internal/config"
)

// AzureOpenAIChat implements ChatProvider for an Azure OpenAI deployment
type AzureOpenAIChat struct {
	deployment string
	endpoint   string
	auth       Authenticator
	client     *http.Client
}

// NewAzureOpenAIChat creates a new Azure OpenAI chat provider
func NewAzureOpenAIChat(cfg config.LLMConfig) (ChatProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api_key is required for Azure OpenAI provider")
	}

	base, err := url.Parse(strings.TrimRight(cfg.APIBase, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api_base %q", cfg.APIBase)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		base.String(), url.PathEscape(cfg.Deployment), url.QueryEscape(cfg.APIVersion))

	return &AzureOpenAIChat{
		deployment: cfg.Deployment,
		endpoint:   endpoint,
		auth:       headerCredential{header: "api-key", key: cfg.APIKey},
		client:     newHTTPClient(cfg.Timeout),
	}, nil
}

// Name returns the provider name
func (p *AzureOpenAIChat) Name() string {
	return config.ChatAzure
}

// Generate sends a chat completion to the configured deployment. The
// deployment fixes the model, so none is sent in the body.
func (p *AzureOpenAIChat) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	var resp chatCompletionResponse
	req := newChatCompletionRequest("", prompt, opts)
	if err := postJSON(ctx, p.client, p.auth, p.endpoint, req, &resp); err != nil {
		return "", err
	}
	return completionText(&resp)
}

// Close cleans up resources
func (p *AzureOpenAIChat) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
