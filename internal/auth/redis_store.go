package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"nf_gateway/internal/utils"
)

// RedisKeyStore keeps keys in a Redis hash of hash(API key) -> JSON record,
// so issued keys survive restarts and are shared between replicas.
type RedisKeyStore struct {
	client *redis.Client
	key    string
}

// NewRedisKeyStore creates a store on the hash at key
func NewRedisKeyStore(client *redis.Client, key string) *RedisKeyStore {
	return &RedisKeyStore{client: client, key: key}
}

func (s *RedisKeyStore) Lookup(ctx context.Context, plaintextKey string) (*KeyRecord, error) {
	raw, err := s.client.HGet(ctx, s.key, utils.HashString(plaintextKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}

	var rec KeyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode API key record: %w", err)
	}
	return &rec, nil
}

// Insert uses HSETNX so the existence check and the write are one operation
func (s *RedisKeyStore) Insert(ctx context.Context, plaintextKey string, rec *KeyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode API key record: %w", err)
	}

	set, err := s.client.HSetNX(ctx, s.key, utils.HashString(plaintextKey), data).Result()
	if err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	if !set {
		return ErrKeyExists
	}
	return nil
}

func (s *RedisKeyStore) List(ctx context.Context) ([]*KeyRecord, error) {
	values, err := s.client.HVals(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}

	out := make([]*KeyRecord, 0, len(values))
	for _, raw := range values {
		var rec KeyRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode API key record: %w", err)
		}
		out = append(out, &rec)
	}
	sortRecords(out)
	return out, nil
}
