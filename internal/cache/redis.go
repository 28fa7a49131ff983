// Package cache provides Redis cache access layer.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultListTTL bounds how long a cached subscriber listing is kept.
const DefaultListTTL = 5 * time.Minute

// Cache provides Redis cache access methods.
type Cache struct {
	client  *redis.Client
	listTTL time.Duration
}

// New creates a new Cache with a Redis client and verifies the connection.
// A non-positive listTTL falls back to DefaultListTTL.
func New(ctx context.Context, redisURL string, listTTL time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewFromClient(client, listTTL), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, listTTL time.Duration) *Cache {
	if listTTL <= 0 {
		listTTL = DefaultListTTL
	}
	return &Cache{client: client, listTTL: listTTL}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
// Use sparingly - prefer adding methods to Cache.
func (c *Cache) Client() *redis.Client {
	return c.client
}
