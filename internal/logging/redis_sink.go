package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSinkTimeout = 2 * time.Second

// RedisSink keeps the most recent dispatch records in a capped Redis list,
// newest first.
type RedisSink struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedisSink creates a sink writing to the list at key, trimmed to maxLen
func NewRedisSink(client *redis.Client, key string, maxLen int64) *RedisSink {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisSink{client: client, key: key, maxLen: maxLen}
}

// Enqueue pushes rec and trims the list in one round trip
func (s *RedisSink) Enqueue(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisSinkTimeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push to Redis: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first
func (s *RedisSink) Recent(ctx context.Context, n int64) ([]*Record, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from Redis: %w", err)
	}

	records := make([]*Record, 0, len(raw))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			Warningf("Skipping malformed dispatch record: %v", err)
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}
