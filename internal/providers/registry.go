package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"nf_gateway/internal/config"
)

// slot holds the single resolution outcome of one domain
type slot struct {
	once sync.Once
	cap  Capability
	err  error
}

// ProviderRegistry owns one capability instance per configured domain. The
// first Resolve of a domain constructs it; every later call, including
// concurrent first calls, observes the same instance or the same error.
type ProviderRegistry struct {
	cfg     *config.Config
	factory *ProviderFactory
	slots   map[Domain]*slot
}

// NewLazyRegistry creates a registry that resolves domains on first use
func NewLazyRegistry(cfg *config.Config, factory *ProviderFactory) *ProviderRegistry {
	slots := make(map[Domain]*slot, len(Domains))
	for _, d := range Domains {
		slots[d] = &slot{}
	}
	return &ProviderRegistry{cfg: cfg, factory: factory, slots: slots}
}

// NewRegistry creates a registry and resolves every configured domain
// immediately, so an unknown or failing provider stops startup.
func NewRegistry(ctx context.Context, cfg *config.Config, factory *ProviderFactory) (*ProviderRegistry, error) {
	r := NewLazyRegistry(cfg, factory)
	if err := r.ResolveAll(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Configured reports whether the configuration selects a provider for domain
func (r *ProviderRegistry) Configured(domain Domain) bool {
	return r.ProviderName(domain) != ""
}

// ProviderName returns the configured provider name for domain
func (r *ProviderRegistry) ProviderName(domain Domain) string {
	switch domain {
	case DomainChat:
		return r.cfg.LLM.Provider
	case DomainStorage:
		return r.cfg.Cloud.Provider
	case DomainRecords:
		return r.cfg.Database.Provider
	}
	return ""
}

// Resolve returns the capability instance for domain
func (r *ProviderRegistry) Resolve(ctx context.Context, domain Domain) (Capability, error) {
	s, ok := r.slots[domain]
	if !ok {
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
	if !r.Configured(domain) {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityNotConfigured, domain)
	}

	s.once.Do(func() {
		s.cap, s.err = r.factory.Create(ctx, domain, r.cfg)
	})
	return s.cap, s.err
}

// ResolveAll resolves every configured domain and joins the failures
func (r *ProviderRegistry) ResolveAll(ctx context.Context) error {
	var errs []error
	for _, d := range Domains {
		if !r.Configured(d) {
			continue
		}
		if _, err := r.Resolve(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Chat returns the chat capability
func (r *ProviderRegistry) Chat(ctx context.Context) (ChatProvider, error) {
	c, err := r.Resolve(ctx, DomainChat)
	if err != nil {
		return nil, err
	}
	return c.(ChatProvider), nil
}

// Storage returns the blob-storage capability
func (r *ProviderRegistry) Storage(ctx context.Context) (BlobStore, error) {
	c, err := r.Resolve(ctx, DomainStorage)
	if err != nil {
		return nil, err
	}
	return c.(BlobStore), nil
}

// Records returns the record-lookup capability
func (r *ProviderRegistry) Records(ctx context.Context) (RecordStore, error) {
	c, err := r.Resolve(ctx, DomainRecords)
	if err != nil {
		return nil, err
	}
	return c.(RecordStore), nil
}

// Close closes every resolved instance that holds resources
func (r *ProviderRegistry) Close() error {
	var errs []error
	for _, d := range Domains {
		s := r.slots[d]
		// Claim the slot so no construction can start after Close
		s.once.Do(func() { s.err = fmt.Errorf("%w: %s (registry closed)", ErrCapabilityNotConfigured, d) })
		if closer, ok := s.cap.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s provider: %w", d, err))
			}
		}
	}
	return errors.Join(errs...)
}
