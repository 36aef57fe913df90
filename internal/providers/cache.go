package providers

import (
	"context"
	"io"
	"maps"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedRecordStore is a read-through cache in front of a RecordStore.
// Only found records are cached; not-found and failed lookups always reach
// the backend.
type CachedRecordStore struct {
	next  RecordStore
	cache *cache.Cache
}

// NewCachedRecordStore wraps next with a cache whose entries live for ttl
func NewCachedRecordStore(next RecordStore, ttl time.Duration) *CachedRecordStore {
	return &CachedRecordStore{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Name returns the wrapped provider's name
func (c *CachedRecordStore) Name() string {
	return c.next.Name()
}

// Get serves key from the cache or loads it from the backend
func (c *CachedRecordStore) Get(ctx context.Context, key string) (*Record, error) {
	if cached, ok := c.cache.Get(key); ok {
		return copyRecord(cached.(*Record)), nil
	}

	rec, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, copyRecord(rec))
	return rec, nil
}

// Unwrap returns the backend store
func (c *CachedRecordStore) Unwrap() RecordStore {
	return c.next
}

// Close flushes the cache and closes the backend when it holds resources
func (c *CachedRecordStore) Close() error {
	c.cache.Flush()
	if closer, ok := c.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func copyRecord(r *Record) *Record {
	return &Record{Key: r.Key, Data: maps.Clone(r.Data)}
}
