// Package cache provides the optional Redis-backed cache used for the
// HubSpot owner directory. Cache failures are never fatal; callers fall
// back to the live API.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements hubspot.DirectoryCache on a Redis connection.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis using the given URL
// (redis://[user:pass@]host:port/db).
func NewRedisCache(url string) (*RedisCache, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &RedisCache{client: redis.NewClient(options)}, nil
}

// Get returns the cached value for key. The second return value reports
// whether the key was present.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

// Set stores value under key with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
