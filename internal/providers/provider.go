package providers

import (
	"context"
	"time"
)

// Domain is an independent axis along which a provider is selected.
type Domain string

const (
	DomainChat    Domain = "chat"
	DomainStorage Domain = "storage"
	DomainRecords Domain = "records"
)

// Domains lists every domain in resolution order.
var Domains = []Domain{DomainChat, DomainStorage, DomainRecords}

// Capability is implemented by every concrete backend.
type Capability interface {
	// Name returns the enumerated provider name (openai, aws, relational, ...)
	Name() string
}

// GenerateOptions carries optional completion parameters. Zero values leave
// the backend default in place.
type GenerateOptions struct {
	System      string
	Temperature *float64
	MaxTokens   int
}

// ChatProvider is the chat-completion capability.
type ChatProvider interface {
	Capability

	// Generate returns the completion text for prompt. Implementations never
	// retry; retry policy belongs to the caller.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// BlobStore is the blob-storage capability.
type BlobStore interface {
	Capability

	// Put stores data under (container, key) and returns its locator.
	// Repeating a Put with the same container and key overwrites.
	Put(ctx context.Context, container, key string, data []byte) (string, error)

	// Sign returns a time-limited download URL for (container, key)
	Sign(ctx context.Context, container, key string, ttl time.Duration) (string, error)
}

// Record is a single looked-up document.
type Record struct {
	Key  string         `json:"key"`
	Data map[string]any `json:"data"`
}

// RecordStore is the record-lookup capability.
type RecordStore interface {
	Capability

	// Get returns the record stored under key, or ErrRecordNotFound.
	Get(ctx context.Context, key string) (*Record, error)
}

// Authenticator handles authentication for an HTTP-based provider.
type Authenticator interface {
	// Authenticate prepares authentication for a request
	Authenticate(ctx context.Context) (AuthContext, error)
}

// AuthContext holds authentication information for a request
type AuthContext interface {
	// ApplyToRequest applies authentication to an HTTP request
	ApplyToRequest(ctx context.Context, req any) error
}
