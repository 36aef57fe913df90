package gateway

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"nf_gateway/internal/config"
	"nf_gateway/internal/providers"
)

// MaxSignTTL is the longest lifetime a signed URL may have
const MaxSignTTL = config.MaxSignTTL

// Policy holds the request rules taken from configuration
type Policy struct {
	AllowedExtensions []string // lower case, with leading dot; empty allows any
	MaxUploadBytes    int64    // 0 means no limit
	DefaultTTL        time.Duration
	MaxTTL            time.Duration
}

// DefaultPolicy accepts any extension and signs for one hour
func DefaultPolicy() Policy {
	return Policy{DefaultTTL: time.Hour, MaxTTL: MaxSignTTL}
}

// PolicyFromConfig builds a policy from the storage section
func PolicyFromConfig(cfg config.StorageConfig) Policy {
	p := Policy{
		AllowedExtensions: cfg.AllowedExtensions,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		DefaultTTL:        cfg.DefaultTTL,
		MaxTTL:            cfg.MaxTTL,
	}
	if p.DefaultTTL <= 0 {
		p.DefaultTTL = time.Hour
	}
	if p.MaxTTL <= 0 || p.MaxTTL > MaxSignTTL {
		p.MaxTTL = MaxSignTTL
	}
	p.DefaultTTL = min(p.DefaultTTL, p.MaxTTL)
	return p
}

// Request is one typed operation against a capability domain
type Request interface {
	Domain() providers.Domain
	Validate(p Policy) error
}

// ChatRequest asks the chat capability for a completion
type ChatRequest struct {
	Prompt  string
	Options providers.GenerateOptions
}

func (r *ChatRequest) Domain() providers.Domain { return providers.DomainChat }

func (r *ChatRequest) Validate(p Policy) error {
	if strings.TrimSpace(r.Prompt) == "" {
		return invalid("prompt is required")
	}
	if r.Options.MaxTokens < 0 {
		return invalid("max_tokens must not be negative")
	}
	if t := r.Options.Temperature; t != nil && (*t < 0 || *t > 2) {
		return invalid("temperature must be between 0 and 2")
	}
	return nil
}

// UploadRequest stores a file in the blob-storage capability
type UploadRequest struct {
	Container string
	Filename  string
	Data      []byte
}

func (r *UploadRequest) Domain() providers.Domain { return providers.DomainStorage }

func (r *UploadRequest) Validate(p Policy) error {
	if strings.TrimSpace(r.Container) == "" {
		return invalid("container is required")
	}
	if strings.TrimSpace(r.Filename) == "" {
		return invalid("filename is required")
	}
	if len(p.AllowedExtensions) > 0 {
		ext := strings.ToLower(filepath.Ext(r.Filename))
		if !slices.Contains(p.AllowedExtensions, ext) {
			return invalid(fmt.Sprintf("file type %q not allowed, expected one of %s", ext, strings.Join(p.AllowedExtensions, ", ")))
		}
	}
	if len(r.Data) == 0 {
		return invalid("file is empty")
	}
	if p.MaxUploadBytes > 0 && int64(len(r.Data)) > p.MaxUploadBytes {
		return invalid(fmt.Sprintf("file exceeds %d bytes", p.MaxUploadBytes))
	}
	return nil
}

// SignRequest asks for a time-limited download URL. A TTL of zero or less
// takes the policy default.
type SignRequest struct {
	Container string
	Key       string
	TTL       time.Duration
}

func (r *SignRequest) Domain() providers.Domain { return providers.DomainStorage }

func (r *SignRequest) Validate(p Policy) error {
	if strings.TrimSpace(r.Container) == "" {
		return invalid("container is required")
	}
	if strings.TrimSpace(r.Key) == "" {
		return invalid("key is required")
	}
	if r.effectiveTTL(p) > p.MaxTTL {
		return invalid(fmt.Sprintf("ttl must not exceed %s", p.MaxTTL))
	}
	return nil
}

func (r *SignRequest) effectiveTTL(p Policy) time.Duration {
	if r.TTL <= 0 {
		return p.DefaultTTL
	}
	return r.TTL
}

// LookupRequest fetches one record by key
type LookupRequest struct {
	Key string
}

func (r *LookupRequest) Domain() providers.Domain { return providers.DomainRecords }

func (r *LookupRequest) Validate(p Policy) error {
	if strings.TrimSpace(r.Key) == "" {
		return invalid("key is required")
	}
	return nil
}

type invalidRequestError string

func (e invalidRequestError) Error() string { return string(e) }

func invalid(msg string) error { return invalidRequestError(msg) }
