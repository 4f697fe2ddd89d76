package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/askdocs/askdocs/internal/rag"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// QueryCache memoizes full query responses. Identical query text and options
// hash to the same key; ingestion and deletion do not invalidate entries, so
// the TTL should stay short.
type QueryCache struct {
	cache *Cache
	ttl   time.Duration
}

func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{cache: NewCache(client), ttl: ttl}
}

func (q *QueryCache) Key(req rag.QueryRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return "query:" + hex.EncodeToString(sum[:])
}

func (q *QueryCache) Get(ctx context.Context, req rag.QueryRequest) (*rag.QueryResponse, bool) {
	var resp rag.QueryResponse
	if err := q.cache.Get(ctx, q.Key(req), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (q *QueryCache) Set(ctx context.Context, req rag.QueryRequest, resp *rag.QueryResponse) error {
	return q.cache.Set(ctx, q.Key(req), resp, q.ttl)
}
