package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// headerCredential sends a provider API key in one request header. The zero
// value sends nothing, for backends that accept anonymous requests.
type headerCredential struct {
	header string
	prefix string
	key    string
}

// bearerCredential is OpenAI-style "Authorization: Bearer <key>"
func bearerCredential(apiKey string) headerCredential {
	return headerCredential{header: "Authorization", prefix: "Bearer ", key: apiKey}
}

// Authenticate implements Authenticator. The credential is static, so it is
// its own AuthContext.
func (c headerCredential) Authenticate(ctx context.Context) (AuthContext, error) {
	if c.header != "" && c.key == "" {
		return nil, errors.New("API key is required")
	}
	return c, nil
}

func (c headerCredential) ApplyToRequest(ctx context.Context, req any) error {
	if c.header == "" {
		return nil
	}
	httpReq, ok := req.(*http.Request)
	if !ok {
		return fmt.Errorf("expected *http.Request, got %T", req)
	}
	httpReq.Header.Set(c.header, c.prefix+c.key)
	return nil
}
