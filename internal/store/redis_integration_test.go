//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreIntegration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	s := store.NewRedisStore(client)

	t.Run("put and get record", func(t *testing.T) {
		record := sampleRecord("redis01")

		require.NoError(t, s.Put(ctx, record))

		got, err := s.Get(ctx, "redis01")
		require.NoError(t, err)
		assert.Equal(t, record, got)

		exists, err := s.Exists(ctx, "redis01")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("get unknown code", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		require.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("clicks are counted atomically", func(t *testing.T) {
		var wg sync.WaitGroup

		for range 25 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_ = s.AppendClick(ctx, "redis02", sampleClick("Direct"))
			}()
		}

		wg.Wait()

		analytics, err := s.Analytics(ctx, "redis02")
		require.NoError(t, err)
		assert.Equal(t, 25, analytics.TotalClicks)
		assert.Len(t, analytics.Clicks, 25)
	})

	t.Run("total matches clicks while appends run", func(t *testing.T) {
		assertCountMatchesClicks(t, s, "redis04")
	})

	t.Run("empty analytics", func(t *testing.T) {
		analytics, err := s.Analytics(ctx, "redis03")
		require.NoError(t, err)
		assert.Equal(t, 0, analytics.TotalClicks)
		assert.Empty(t, analytics.Clicks)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})
}

func TestRedisCacheRepositoryIntegration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	t.Run("put writes through and get is served from cache", func(t *testing.T) {
		backing := store.NewMemoryStore()
		cache := store.NewRedisCacheRepository(backing, client, time.Minute)

		require.NoError(t, cache.Put(ctx, sampleRecord("cache01")))

		ttl, err := client.TTL(ctx, "cache:url:cache01").Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)

		got, err := cache.Get(ctx, "cache01")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/path?q=1", got.OriginalURL)
	})

	t.Run("miss populates cache", func(t *testing.T) {
		backing := store.NewMemoryStore()
		require.NoError(t, backing.Put(ctx, sampleRecord("cache02")))

		cache := store.NewRedisCacheRepository(backing, client, time.Minute)

		_, err := cache.Get(ctx, "cache02")
		require.NoError(t, err)

		n, err := client.Exists(ctx, "cache:url:cache02").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("not found passes through", func(t *testing.T) {
		cache := store.NewRedisCacheRepository(store.NewMemoryStore(), client, time.Minute)

		_, err := cache.Get(ctx, "cache03")
		require.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("analytics go to backing store", func(t *testing.T) {
		backing := store.NewMemoryStore()
		cache := store.NewRedisCacheRepository(backing, client, time.Minute)

		require.NoError(t, cache.AppendClick(ctx, "cache04", sampleClick("Direct")))

		analytics, err := backing.Analytics(ctx, "cache04")
		require.NoError(t, err)
		assert.Equal(t, 1, analytics.TotalClicks)
		require.NoError(t, cache.Ping(ctx))
	})
}
