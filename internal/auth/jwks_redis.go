package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentCache stores the raw JWKS document under a single key so
// every replica fetches from the issuer at most once per interval.
type RedisDocumentCache struct {
	rdb *redis.Client
	key string
}

func NewRedisDocumentCache(rdb *redis.Client, key string) *RedisDocumentCache {
	if key == "" {
		key = "coffee-shop:jwks"
	}
	return &RedisDocumentCache{rdb: rdb, key: key}
}

func (c *RedisDocumentCache) Get(ctx context.Context) ([]byte, error) {
	doc, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *RedisDocumentCache) Set(ctx context.Context, doc []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key, doc, ttl).Err()
}
