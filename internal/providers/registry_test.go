package providers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nf_gateway/internal/config"
)

// closingChat is an EchoChat that records Close calls
type closingChat struct {
	EchoChat
	closed atomic.Bool
}

func (c *closingChat) Close() error {
	c.closed.Store(true)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		LLM:      config.LLMConfig{Provider: config.ChatOpenAI},
		Cloud:    config.CloudConfig{Provider: config.StorageAWS},
		Database: config.DatabaseConfig{Provider: config.RecordsRelational},
	}
}

// memoryFactory overrides the built-in names with in-memory stand-ins and
// counts constructor calls.
func memoryFactory(calls *atomic.Int32) *ProviderFactory {
	f := NewProviderFactory()
	f.RegisterChat(config.ChatOpenAI, func(ctx context.Context, cfg config.LLMConfig) (ChatProvider, error) {
		calls.Add(1)
		return &closingChat{}, nil
	})
	f.RegisterStorage(config.StorageAWS, func(ctx context.Context, cfg config.CloudConfig) (BlobStore, error) {
		calls.Add(1)
		return NewMemoryBlobStore(), nil
	})
	f.RegisterRecords(config.RecordsRelational, func(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error) {
		calls.Add(1)
		return NewMemoryRecordStore(nil), nil
	})
	return f
}

func TestRegistry_ResolveReturnsSameInstance(t *testing.T) {
	var calls atomic.Int32
	r := NewLazyRegistry(testConfig(), memoryFactory(&calls))

	for _, d := range Domains {
		first, err := r.Resolve(context.Background(), d)
		require.NoError(t, err)
		second, err := r.Resolve(context.Background(), d)
		require.NoError(t, err)
		assert.Same(t, first, second, "domain %s", d)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestRegistry_ConcurrentResolveConstructsOnce(t *testing.T) {
	var calls atomic.Int32
	r := NewLazyRegistry(testConfig(), memoryFactory(&calls))

	const workers = 50
	results := make([]Capability, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Resolve(context.Background(), DomainStorage)
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, c := range results {
		assert.Same(t, results[0], c)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig()
	cfg.LLM.Provider = "anthropic"
	r := NewLazyRegistry(cfg, memoryFactory(&calls))

	_, err := r.Resolve(context.Background(), DomainChat)
	require.ErrorIs(t, err, ErrUnknownProvider)

	var unknown *UnknownProviderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, DomainChat, unknown.Domain)
	assert.Equal(t, "anthropic", unknown.Name)

	// The failure is remembered and nothing gets built
	_, again := r.Resolve(context.Background(), DomainChat)
	assert.Same(t, err, again)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRegistry_UnknownProviderPerDomain(t *testing.T) {
	// "local-model" is a chat name; it is not a storage provider
	cfg := &config.Config{Cloud: config.CloudConfig{Provider: config.ChatLocalModel}}
	r := NewLazyRegistry(cfg, NewProviderFactory())

	_, err := r.Storage(context.Background())
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistry_ProviderInitError(t *testing.T) {
	cause := errors.New("malformed connection string")
	f := NewProviderFactory()
	f.RegisterStorage(config.StorageAzure, func(ctx context.Context, cfg config.CloudConfig) (BlobStore, error) {
		return nil, cause
	})

	cfg := &config.Config{Cloud: config.CloudConfig{Provider: config.StorageAzure}}
	r := NewLazyRegistry(cfg, f)

	_, err := r.Resolve(context.Background(), DomainStorage)
	require.ErrorIs(t, err, ErrProviderInit)
	assert.ErrorIs(t, err, cause)

	var initErr *ProviderInitError
	require.True(t, errors.As(err, &initErr))
	assert.Same(t, cause, initErr.Err)
	assert.Equal(t, DomainStorage, initErr.Domain)
}

func TestRegistry_NotConfigured(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig()
	cfg.Database.Provider = ""
	r := NewLazyRegistry(cfg, memoryFactory(&calls))

	assert.False(t, r.Configured(DomainRecords))
	_, err := r.Records(context.Background())
	assert.ErrorIs(t, err, ErrCapabilityNotConfigured)
}

func TestNewRegistry_ResolvesEagerly(t *testing.T) {
	var calls atomic.Int32
	r, err := NewRegistry(context.Background(), testConfig(), memoryFactory(&calls))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	chat, err := r.Chat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "resolved instances are reused")

	require.NoError(t, r.Close())
	assert.True(t, chat.(*closingChat).closed.Load())
}

func TestNewRegistry_StartupFailure(t *testing.T) {
	var calls atomic.Int32
	cfg := testConfig()
	cfg.Database.Provider = "cassandra"

	r, err := NewRegistry(context.Background(), cfg, memoryFactory(&calls))
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestFactory_SupportedNames(t *testing.T) {
	f := NewProviderFactory()
	assert.Equal(t, []string{"azure", "local-model", "openai"}, f.SupportedNames(DomainChat))
	assert.Equal(t, []string{"aws", "azure", "gcp"}, f.SupportedNames(DomainStorage))
	assert.Equal(t, []string{"document", "relational"}, f.SupportedNames(DomainRecords))
}

func TestFactory_CachedRecordsWhenTTLSet(t *testing.T) {
	f := NewProviderFactory()
	f.RegisterRecords(config.RecordsDocument, func(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error) {
		return NewMemoryRecordStore(nil), nil
	})

	s, err := f.CreateRecords(context.Background(), config.DatabaseConfig{Provider: config.RecordsDocument, CacheTTL: time.Minute})
	require.NoError(t, err)
	_, cached := s.(*CachedRecordStore)
	assert.True(t, cached)

	s, err = f.CreateRecords(context.Background(), config.DatabaseConfig{Provider: config.RecordsDocument})
	require.NoError(t, err)
	_, cached = s.(*CachedRecordStore)
	assert.False(t, cached)
}
