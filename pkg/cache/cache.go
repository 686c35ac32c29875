package cache

import (
	"context"
	"errors"
	"time"

	pkgredis "github.com/dcortes/shopline-backend/pkg/redis"
)

// Cache is an explicit, injectable TTL cache. Collaborator lookups (promotion
// rules today) cache through this interface so lifecycle and eviction are
// owned by the caller rather than hidden module state.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Evict(ctx context.Context, key string) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisCache backs the Cache interface with the shared redis client.
type RedisCache struct {
	store redisStore
}

// NewRedisCache wraps the provided redis surface.
func NewRedisCache(store redisStore) (*RedisCache, error) {
	if store == nil {
		return nil, errors.New("redis store required")
	}
	return &RedisCache{store: store}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.store.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.store.Set(ctx, key, value, ttl)
}

func (c *RedisCache) Evict(ctx context.Context, key string) error {
	return c.store.Del(ctx, key)
}
