package gateway

import (
	"time"

	"nf_gateway/internal/providers"
)

// Kind classifies a failed dispatch
type Kind string

const (
	KindNotConfigured  Kind = "capability_not_configured"
	KindInvalidRequest Kind = "invalid_request"
	KindNotFound       Kind = "not_found"
	KindBackendFailure Kind = "backend_failure"
)

// Failure describes why a dispatch produced no result
type Failure struct {
	Kind      Kind
	Message   string
	Retryable bool  // the backend reported a throttling or server-side condition
	Err       error // underlying cause, logged but never put in Message
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Response carries either a result or a failure, never both
type Response struct {
	Domain   providers.Domain
	Provider string
	Result   any
	Failure  *Failure
}

// OK reports whether the dispatch succeeded
func (r *Response) OK() bool {
	return r.Failure == nil
}

// ChatResult is the result of a ChatRequest
type ChatResult struct {
	Text string
}

// UploadResult is the result of an UploadRequest
type UploadResult struct {
	Locator   string
	Container string
	Key       string
}

// SignResult is the result of a SignRequest
type SignResult struct {
	URL       string
	ExpiresIn time.Duration
}

// LookupResult is the result of a LookupRequest
type LookupResult struct {
	Record *providers.Record
}
