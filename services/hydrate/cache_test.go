package hydrate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, config CacheConfig) (*miniredis.Miniredis, *Cache) {
	server := miniredis.RunT(t)
	config.Url = "redis://" + server.Addr()

	cache, err := NewCache(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return server, cache
}

func TestCacheRoundTrip(t *testing.T) {
	_, cache := newTestCache(t, CacheConfig{})
	ctx := context.Background()
	record := testRecord()

	require.Nil(t, cache.Get(ctx, "missing"))

	cache.Put(ctx, "maria", record)
	got := cache.Get(ctx, "maria")
	require.NotNil(t, got)
	require.Equal(t, record, got)

	require.Nil(t, cache.Get(ctx, "someone-else"))
}

func TestCacheExpiry(t *testing.T) {
	server, cache := newTestCache(t, CacheConfig{TTLMinutes: 30})
	ctx := context.Background()

	cache.Put(ctx, "maria", testRecord())
	require.NotNil(t, cache.Get(ctx, "maria"))

	server.FastForward(time.Minute * 31)
	require.Nil(t, cache.Get(ctx, "maria"))
}

func TestCacheUnavailableDegradesToMiss(t *testing.T) {
	server, cache := newTestCache(t, CacheConfig{})
	ctx := context.Background()

	cache.Put(ctx, "maria", testRecord())
	server.Close()

	// a dead cache must never fail a lookup, only skip it
	require.Nil(t, cache.Get(ctx, "maria"))
	cache.Put(ctx, "maria", testRecord())
}

func TestCacheCorruptEntryDegradesToMiss(t *testing.T) {
	server, cache := newTestCache(t, CacheConfig{})
	ctx := context.Background()

	require.NoError(t, server.Set(cacheKeyPrefix+"maria", "{not json"))
	require.Nil(t, cache.Get(ctx, "maria"))
}

func TestCacheDisabled(t *testing.T) {
	cache, err := NewCache(context.Background(), CacheConfig{})
	require.NoError(t, err)
	require.Nil(t, cache)

	// nil caches behave as always-miss
	ctx := context.Background()
	require.Nil(t, cache.Get(ctx, "maria"))
	cache.Put(ctx, "maria", testRecord())
	require.NoError(t, cache.Close())
}
