package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"nf_gateway/internal/config"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// chatMessage is one entry of an OpenAI-style messages array
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the body shared by OpenAI and Azure OpenAI
type chatCompletionRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var errEmptyCompletion = errors.New("completion returned no choices")

func newChatCompletionRequest(model, prompt string, opts GenerateOptions) chatCompletionRequest {
	messages := make([]chatMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	return chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
}

func completionText(resp *chatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIChat implements ChatProvider for the OpenAI chat completions API
type OpenAIChat struct {
	model   string
	auth    Authenticator
	client  *http.Client
	baseURL string
}

// NewOpenAIChat creates a new OpenAI chat provider. llm.api_base, when set,
// replaces the public endpoint (OpenAI-compatible proxies).
func NewOpenAIChat(cfg config.LLMConfig) (ChatProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api_key is required for OpenAI provider")
	}

	baseURL := openAIDefaultBaseURL
	if cfg.APIBase != "" {
		baseURL = strings.TrimRight(cfg.APIBase, "/")
	}

	return &OpenAIChat{
		model:   cfg.Model,
		auth:    bearerCredential(cfg.APIKey),
		client:  newHTTPClient(cfg.Timeout),
		baseURL: baseURL,
	}, nil
}

// Name returns the provider name
func (p *OpenAIChat) Name() string {
	return config.ChatOpenAI
}

// Generate sends a single-turn chat completion request
func (p *OpenAIChat) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	var resp chatCompletionResponse
	req := newChatCompletionRequest(p.model, prompt, opts)
	if err := postJSON(ctx, p.client, p.auth, p.baseURL+"/chat/completions", req, &resp); err != nil {
		return "", err
	}
	return completionText(&resp)
}

// Close cleans up resources
func (p *OpenAIChat) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
