// Package cache provides a Dragonfly/Redis client wrapper.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "progress:"

// Cache wraps a Redis/Dragonfly client.
type Cache struct {
	Client *redis.Client
	ttl    time.Duration
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a new cache client. ttl bounds how long derived analytics stay
// cached even without an invalidation.
func New(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client, ttl: ttl}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Load reads the cached value for (userID, name) into dst. It reports false
// on a miss. Keys embed the user's current version, so Invalidate makes every
// older entry unreachable without scanning. The returned version is the one
// the lookup used; pass it to Store so a value computed before an
// invalidation cannot land under the newer version.
func (c *Cache) Load(ctx context.Context, userID, name string, dst any) (int64, bool, error) {
	version, err := c.version(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	data, err := c.Client.Get(ctx, EntryKey(userID, version, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return version, false, nil
	}
	if err != nil {
		return version, false, fmt.Errorf("get cached %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return version, false, fmt.Errorf("decode cached %s: %w", name, err)
	}
	return version, true, nil
}

// Store caches v for (userID, name) under version, as returned by Load.
func (c *Cache) Store(ctx context.Context, userID string, version int64, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := c.Client.Set(ctx, EntryKey(userID, version, name), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached %s: %w", name, err)
	}
	return nil
}

// Invalidate bumps the user's version so previously cached entries are ignored
// and left to expire.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	if err := c.Client.Incr(ctx, VersionKey(userID)).Err(); err != nil {
		return fmt.Errorf("bump cache version: %w", err)
	}
	return nil
}

func (c *Cache) version(ctx context.Context, userID string) (int64, error) {
	v, err := c.Client.Get(ctx, VersionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cache version: %w", err)
	}
	return v, nil
}

// VersionKey is the counter bumped on every write for userID.
func VersionKey(userID string) string {
	return keyPrefix + userID + ":version"
}

// EntryKey is the key of a cached analytics entry.
func EntryKey(userID string, version int64, name string) string {
	return fmt.Sprintf("%s%s:v%d:%s", keyPrefix, userID, version, name)
}
