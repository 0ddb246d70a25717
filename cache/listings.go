// Package cache holds the Redis-backed listing cache and the session
// revocation list.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const listingKeyPrefix = "property:"

// Listings caches listing query results. Implementations must treat every
// error as a miss; the store stays the source of truth.
type Listings interface {
	Get(ctx context.Context, key string, dst interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Invalidate(ctx context.Context)
}

// ListingKey derives a stable key for a listing view. Params are sorted so
// their order does not matter.
func ListingKey(view, userID string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(view)
	sb.WriteString(":")
	sb.WriteString(userID)
	sb.WriteString(":")
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(params[key])
		sb.WriteString("&")
	}
	rawKey := strings.TrimSuffix(sb.String(), "&")

	sum := sha256.Sum256([]byte(rawKey))
	return listingKeyPrefix + hex.EncodeToString(sum[:])
}

type RedisListings struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisListings(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisListings {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisListings{client: client, ttl: ttl, logger: logger}
}

func (c *RedisListings) Get(ctx context.Context, key string, dst interface{}) bool {
	cached, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis GET failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(cached, dst); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return false
	}
	c.logger.Debug("cache hit", "key", key)
	return true
}

func (c *RedisListings) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to serialize cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache response", "key", key, "error", err)
	}
}

// Invalidate drops every listing entry.
func (c *RedisListings) Invalidate(ctx context.Context) {
	const scanPattern = listingKeyPrefix + "*"
	const scanCount = 100

	var keysToDelete []string
	var cursor uint64
	for {
		currentKeys, next, err := c.client.Scan(ctx, cursor, scanPattern, scanCount).Result()
		if err != nil {
			c.logger.Error("redis SCAN failed", "pattern", scanPattern, "error", err)
			return
		}
		keysToDelete = append(keysToDelete, currentKeys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keysToDelete) == 0 {
		return
	}

	pipe := c.client.Pipeline()
	for _, key := range keysToDelete {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("failed to delete listing cache keys", "count", len(keysToDelete), "error", err)
		return
	}
	c.logger.Debug("listing cache invalidated", "count", len(keysToDelete))
}

// NoopListings never hits.
type NoopListings struct{}

func (NoopListings) Get(context.Context, string, interface{}) bool { return false }
func (NoopListings) Set(context.Context, string, interface{}) {}
func (NoopListings) Invalidate(context.Context) {}
