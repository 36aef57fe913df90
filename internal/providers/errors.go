package providers

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnknownProvider is returned when a domain names a provider outside its variant set
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrProviderInit is returned when a provider constructor fails
	ErrProviderInit = errors.New("provider initialization failed")

	// ErrCapabilityNotConfigured is returned for a domain absent from configuration
	ErrCapabilityNotConfigured = errors.New("capability not configured")

	// ErrRecordNotFound is returned by RecordStore.Get when no record matches
	ErrRecordNotFound = errors.New("record not found")
)

// UnknownProviderError names the domain and the rejected provider name.
type UnknownProviderError struct {
	Domain Domain
	Name   string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("%s: %s provider %q", ErrUnknownProvider, e.Domain, e.Name)
}

func (e *UnknownProviderError) Is(target error) bool {
	return target == ErrUnknownProvider
}

// ProviderInitError carries the constructor failure unchanged.
type ProviderInitError struct {
	Domain Domain
	Name   string
	Err    error
}

func (e *ProviderInitError) Error() string {
	return fmt.Sprintf("%s: %s provider %q: %v", ErrProviderInit, e.Domain, e.Name, e.Err)
}

func (e *ProviderInitError) Is(target error) bool {
	return target == ErrProviderInit
}

func (e *ProviderInitError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx answer from an HTTP backend. Throttling and
// server-side failures render with the "model API returned status" prefix so
// callers can classify them as recoverable.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Retryable() {
		return fmt.Sprintf("model API returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("request rejected: status=%d, body=%s", e.StatusCode, e.Body)
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
