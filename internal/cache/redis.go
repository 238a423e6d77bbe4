package cache

import (
	"context"
	"errors"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "airbuddy:"

// RedisCache stores payloads in redis with a per-key TTL.
type RedisCache struct {
	client *redisv9.Client
	prefix string
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redisv9.Client) *RedisCache {
	return &RedisCache{client: client, prefix: defaultKeyPrefix}
}

// NewRedisClient builds a client for addr.
func NewRedisClient(addr, password string, db int) *redisv9.Client {
	return redisv9.NewClient(&redisv9.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the payload stored under key, or ErrMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set stores value under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
