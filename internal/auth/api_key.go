package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"nf_gateway/internal/utils"
)

// KeyRecord is the stored view of an ordinary API key. The plaintext key is
// never kept; stores index records by its SHA-256 hash.
type KeyRecord struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// KeyStore holds ordinary API keys. Insert must be atomic: of two concurrent
// inserts of the same key, exactly one succeeds.
type KeyStore interface {
	Lookup(ctx context.Context, plaintextKey string) (*KeyRecord, error)
	Insert(ctx context.Context, plaintextKey string, rec *KeyRecord) error
	List(ctx context.Context) ([]*KeyRecord, error)
}

// MemoryKeyStore keeps keys in process memory.
type MemoryKeyStore struct {
	mu sync.RWMutex
	// map of hash(API key) -> record
	keys map[string]*KeyRecord
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{
		keys: make(map[string]*KeyRecord),
	}
}

func (s *MemoryKeyStore) Lookup(ctx context.Context, plaintextKey string) (*KeyRecord, error) {
	hash := utils.HashString(plaintextKey)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.keys[hash]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryKeyStore) Insert(ctx context.Context, plaintextKey string, rec *KeyRecord) error {
	hash := utils.HashString(plaintextKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[hash]; exists {
		return ErrKeyExists
	}
	cp := *rec
	s.keys[hash] = &cp
	return nil
}

func (s *MemoryKeyStore) List(ctx context.Context) ([]*KeyRecord, error) {
	s.mu.RLock()
	out := make([]*KeyRecord, 0, len(s.keys))
	for _, rec := range s.keys {
		cp := *rec
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sortRecords(out)
	return out, nil
}

// sortRecords orders records by creation time, then ID
func sortRecords(recs []*KeyRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}
