package terms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares resolver answers between processes working on the same
// batch. Keys are namespaced by a run id so Purge only removes this run's
// entries; the TTL bounds anything a crashed run leaves behind.
type RedisCache struct {
	client *redis.Client
	prefix string
	runID  string
	ttl    time.Duration
}

// NewRedisCache wraps client. An empty runID mints a fresh one.
func NewRedisCache(client *redis.Client, prefix, runID string, ttl time.Duration) *RedisCache {
	if runID == "" {
		runID = uuid.NewString()
	}
	if prefix == "" {
		prefix = "weft"
	}
	return &RedisCache{client: client, prefix: prefix, runID: runID, ttl: ttl}
}

// RunID identifies the batch run the cache belongs to.
func (c *RedisCache) RunID() string {
	return c.runID
}

func (c *RedisCache) key(k string) string {
	return fmt.Sprintf("%s:terms:%s:%s", c.prefix, c.runID, k)
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Term, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	var terms []Term
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return terms, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, terms []Term) error {
	if terms == nil {
		terms = []Term{}
	}
	data, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (c *RedisCache) Purge(ctx context.Context) error {
	pattern := fmt.Sprintf("%s:terms:%s:*", c.prefix, c.runID)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
