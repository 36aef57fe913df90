package providers

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"nf_gateway/internal/config"
)

// ChatCreator builds a chat provider from the llm section
type ChatCreator func(ctx context.Context, cfg config.LLMConfig) (ChatProvider, error)

// StorageCreator builds a blob store from the cloud section
type StorageCreator func(ctx context.Context, cfg config.CloudConfig) (BlobStore, error)

// RecordsCreator builds a record store from the database section
type RecordsCreator func(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error)

// ProviderFactory maps provider names to constructors, one table per domain.
type ProviderFactory struct {
	mu      sync.RWMutex
	chat    map[string]ChatCreator
	storage map[string]StorageCreator
	records map[string]RecordsCreator
}

// NewProviderFactory creates a new provider factory with the built-in
// providers registered
func NewProviderFactory() *ProviderFactory {
	f := &ProviderFactory{
		chat:    make(map[string]ChatCreator),
		storage: make(map[string]StorageCreator),
		records: make(map[string]RecordsCreator),
	}

	// Register built-in providers
	f.RegisterChat(config.ChatOpenAI, func(ctx context.Context, cfg config.LLMConfig) (ChatProvider, error) {
		return NewOpenAIChat(cfg)
	})
	f.RegisterChat(config.ChatAzure, func(ctx context.Context, cfg config.LLMConfig) (ChatProvider, error) {
		return NewAzureOpenAIChat(cfg)
	})
	f.RegisterChat(config.ChatLocalModel, func(ctx context.Context, cfg config.LLMConfig) (ChatProvider, error) {
		return NewLocalModelChat(cfg)
	})

	f.RegisterStorage(config.StorageAWS, func(ctx context.Context, cfg config.CloudConfig) (BlobStore, error) {
		return NewS3Store(ctx, cfg)
	})
	f.RegisterStorage(config.StorageAzure, func(ctx context.Context, cfg config.CloudConfig) (BlobStore, error) {
		return NewAzureBlobStore(cfg)
	})
	f.RegisterStorage(config.StorageGCP, func(ctx context.Context, cfg config.CloudConfig) (BlobStore, error) {
		return NewGCSStore(ctx, cfg)
	})

	f.RegisterRecords(config.RecordsRelational, func(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error) {
		return NewSQLRecordStore(ctx, cfg)
	})
	f.RegisterRecords(config.RecordsDocument, func(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error) {
		return NewMongoRecordStore(ctx, cfg)
	})

	return f
}

// RegisterChat registers a chat provider creator, replacing any previous one
func (f *ProviderFactory) RegisterChat(name string, creator ChatCreator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chat[name] = creator
}

// RegisterStorage registers a blob store creator, replacing any previous one
func (f *ProviderFactory) RegisterStorage(name string, creator StorageCreator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storage[name] = creator
}

// RegisterRecords registers a record store creator, replacing any previous one
func (f *ProviderFactory) RegisterRecords(name string, creator RecordsCreator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[name] = creator
}

// SupportedNames returns the sorted provider names registered for domain
func (f *ProviderFactory) SupportedNames(domain Domain) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var names []string
	switch domain {
	case DomainChat:
		names = keys(f.chat)
	case DomainStorage:
		names = keys(f.storage)
	case DomainRecords:
		names = keys(f.records)
	}
	slices.Sort(names)
	return names
}

// CreateChat builds the chat provider named by cfg.Provider
func (f *ProviderFactory) CreateChat(ctx context.Context, cfg config.LLMConfig) (ChatProvider, error) {
	f.mu.RLock()
	creator, exists := f.chat[cfg.Provider]
	f.mu.RUnlock()

	if !exists {
		return nil, &UnknownProviderError{Domain: DomainChat, Name: cfg.Provider}
	}

	p, err := creator(ctx, cfg)
	if err != nil {
		return nil, &ProviderInitError{Domain: DomainChat, Name: cfg.Provider, Err: err}
	}
	return p, nil
}

// CreateStorage builds the blob store named by cfg.Provider
func (f *ProviderFactory) CreateStorage(ctx context.Context, cfg config.CloudConfig) (BlobStore, error) {
	f.mu.RLock()
	creator, exists := f.storage[cfg.Provider]
	f.mu.RUnlock()

	if !exists {
		return nil, &UnknownProviderError{Domain: DomainStorage, Name: cfg.Provider}
	}

	s, err := creator(ctx, cfg)
	if err != nil {
		return nil, &ProviderInitError{Domain: DomainStorage, Name: cfg.Provider, Err: err}
	}
	return s, nil
}

// CreateRecords builds the record store named by cfg.Provider, behind a
// read-through cache when cfg.CacheTTL is positive
func (f *ProviderFactory) CreateRecords(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error) {
	f.mu.RLock()
	creator, exists := f.records[cfg.Provider]
	f.mu.RUnlock()

	if !exists {
		return nil, &UnknownProviderError{Domain: DomainRecords, Name: cfg.Provider}
	}

	s, err := creator(ctx, cfg)
	if err != nil {
		return nil, &ProviderInitError{Domain: DomainRecords, Name: cfg.Provider, Err: err}
	}

	if cfg.CacheTTL > 0 {
		return NewCachedRecordStore(s, cfg.CacheTTL), nil
	}
	return s, nil
}

// Create builds the capability for domain from the full configuration
func (f *ProviderFactory) Create(ctx context.Context, domain Domain, cfg *config.Config) (Capability, error) {
	switch domain {
	case DomainChat:
		return f.CreateChat(ctx, cfg.LLM)
	case DomainStorage:
		return f.CreateStorage(ctx, cfg.Cloud)
	case DomainRecords:
		return f.CreateRecords(ctx, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
