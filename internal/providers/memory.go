package providers

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"sync"
	"time"
)

// EchoChat is an in-memory ChatProvider that answers with the prompt itself.
type EchoChat struct{}

// Name returns the provider name
func (EchoChat) Name() string { return "echo" }

// Generate returns prompt unchanged
func (EchoChat) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return prompt, nil
}

// MemoryBlobStore is an in-memory BlobStore
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory blob store
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

// Name returns the provider name
func (s *MemoryBlobStore) Name() string { return "memory" }

// Put stores a copy of data, replacing any previous value
func (s *MemoryBlobStore) Put(ctx context.Context, container, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[memoryPath(container, key)] = append([]byte(nil), data...)
	return "memory://" + memoryPath(container, key), nil
}

// Sign returns a pseudo URL carrying the expiry
func (s *MemoryBlobStore) Sign(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	q := url.Values{"expires": {time.Now().Add(ttl).UTC().Format(time.RFC3339)}}
	return fmt.Sprintf("memory://%s?%s", memoryPath(container, key), q.Encode()), nil
}

// Object returns the stored bytes for (container, key)
func (s *MemoryBlobStore) Object(container, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[memoryPath(container, key)]
	return data, ok
}

// Len returns the number of stored objects
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func memoryPath(container, key string) string {
	return container + "/" + key
}

// MemoryRecordStore is an in-memory RecordStore
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]map[string]any
}

// NewMemoryRecordStore creates a record store holding a copy of records
func NewMemoryRecordStore(records map[string]map[string]any) *MemoryRecordStore {
	s := &MemoryRecordStore{records: make(map[string]map[string]any, len(records))}
	for k, v := range records {
		s.records[k] = maps.Clone(v)
	}
	return s
}

// Name returns the provider name
func (s *MemoryRecordStore) Name() string { return "memory" }

// Get returns a copy of the record stored under key
func (s *MemoryRecordStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &Record{Key: key, Data: maps.Clone(data)}, nil
}

// Set stores or replaces a record
func (s *MemoryRecordStore) Set(key string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = maps.Clone(data)
}
