package hydrate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"votolocal-backend/lib/scrapers/tre"
)

const cacheKeyPrefix = "votolocal:location:"

// Cache keeps successful lookups around so re-runs over an overlapping
// backlog don't hit the site again. A nil *Cache is valid and behaves
// as always-miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to redis and verifies the connection. An empty url
// returns a nil cache, callers don't need to special-case it.
func NewCache(ctx context.Context, config CacheConfig) (*Cache, error) {
	if config.Url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(config.Url)
	if err != nil {
		return nil, fmt.Errorf("parse cache url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	return &Cache{client: client, ttl: config.TTL()}, nil
}

// Get returns the cached location for a lookup key, or nil on a miss.
// Cache failures degrade to a miss so the pipeline keeps moving.
func (c *Cache) Get(ctx context.Context, key string) *tre.VoterLocation {
	if c == nil {
		return nil
	}
	payload, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "err", err)
		return nil
	}
	var record tre.VoterLocation
	if err := json.Unmarshal(payload, &record); err != nil {
		slog.WarnContext(ctx, "cache entry corrupt", "key", key, "err", err)
		return nil
	}
	return &record
}

// Put stores a location under a lookup key with the configured TTL.
// Best effort, a failed write is only logged.
func (c *Cache) Put(ctx context.Context, key string, record *tre.VoterLocation) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		slog.WarnContext(ctx, "cache marshal failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
