// Package cache holds the redis-backed cache of the published-content
// projection served by the public read endpoint.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "content:"

// Content caches serialized published-content responses. Keys embed the
// published version id, so a publish naturally misses the cache; the
// explicit invalidation on publish just reclaims stale entries early.
type Content struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// New connects to redis and returns a content cache.
func New(redisURL string, ttl time.Duration, log zerolog.Logger) (*Content, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Content{client: client, ttl: ttl, log: log}, nil
}

// NewWithClient wraps an existing redis client, used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Content {
	return &Content{client: client, ttl: ttl, log: log}
}

// Key builds the cache key for one published-content request.
func Key(versionID, sectionKey, language string) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, versionID, sectionKey, language)
}

// Get returns the cached payload for key, or false on a miss. Redis
// failures degrade to a miss.
func (c *Content) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("content cache read failed")
		return nil, false
	}
	return payload, true
}

// Set stores a payload under key with the configured TTL. Best effort.
func (c *Content) Set(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("content cache write failed")
	}
}

// InvalidateAll removes every cached content entry. Called after a publish.
func (c *Content) InvalidateAll(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			c.log.Warn().Err(err).Msg("content cache invalidation scan failed")
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.log.Warn().Err(err).Msg("content cache invalidation delete failed")
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Close closes the redis connection.
func (c *Content) Close() error {
	return c.client.Close()
}

// Ping checks if redis is reachable.
func (c *Content) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
