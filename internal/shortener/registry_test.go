package shortener_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newRegistry(repo shortener.Repository, gen shortener.CodeGenerator, clock *fakeClock, opts ...shortener.RegistryOption) *shortener.Registry {
	opts = append([]shortener.RegistryOption{shortener.WithClock(clock.Now)}, opts...)

	return shortener.NewRegistry(repo, gen, zap.NewNop(), opts...)
}

func TestRegistry_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("generates a code and applies validity", func(t *testing.T) {
		repo := store.NewMemoryStore()
		gen, err := shortener.NewGenerator(shortener.DefaultCodeLength)
		require.NoError(t, err)

		r := newRegistry(repo, gen, newFakeClock(epoch))

		record, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com/a", ValidityMinutes: 45})
		require.NoError(t, err)

		assert.Len(t, string(record.Code), shortener.DefaultCodeLength)
		assert.True(t, shortener.IsValidShortcode(string(record.Code)))
		assert.Equal(t, epoch, record.CreatedAt)
		assert.Equal(t, epoch.Add(45*time.Minute), record.ExpiresAt)
		assert.Equal(t, 45, record.ValidityMinutes)

		stored, err := repo.Get(ctx, record.Code)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a", stored.OriginalURL)
	})

	t.Run("defaults validity to thirty minutes", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch))

		record, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com"})
		require.NoError(t, err)

		assert.Equal(t, 30, record.ValidityMinutes)
		assert.Equal(t, 30*time.Minute, record.ExpiresAt.Sub(record.CreatedAt))
	})

	t.Run("honours a configured default validity", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch), shortener.WithDefaultValidity(5))

		record, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com"})
		require.NoError(t, err)
		assert.Equal(t, 5, record.ValidityMinutes)
	})

	t.Run("accepts the maximum validity", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch))

		record, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com", ValidityMinutes: shortener.MaxValidityMinutes})
		require.NoError(t, err)

		assert.True(t, record.ExpiresAt.After(record.CreatedAt))
		assert.Equal(t, time.Duration(shortener.MaxValidityMinutes)*time.Minute, record.ExpiresAt.Sub(record.CreatedAt))
	})

	t.Run("rejects validity beyond the maximum and persists nothing", func(t *testing.T) {
		repo := &failingStore{Repository: store.NewMemoryStore()}
		r := newRegistry(repo, sequence("abc123"), newFakeClock(epoch))

		for _, minutes := range []int{shortener.MaxValidityMinutes + 1, 200_000_000} {
			_, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com", ValidityMinutes: minutes})
			require.ErrorIs(t, err, shortener.ErrInvalidValidity, minutes)
		}

		assert.Zero(t, repo.puts)
	})

	t.Run("ignores a configured default beyond the maximum", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch),
			shortener.WithDefaultValidity(shortener.MaxValidityMinutes+1))

		record, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com"})
		require.NoError(t, err)
		assert.Equal(t, shortener.DefaultValidityMinutes, record.ValidityMinutes)
	})

	t.Run("keeps the url byte for byte", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch))
		raw := "HTTPS://Example.com/Path/?b=2&a=1#Frag"

		record, err := r.Create(ctx, shortener.CreateParams{URL: raw})
		require.NoError(t, err)
		assert.Equal(t, raw, record.OriginalURL)
	})

	t.Run("uses a custom code", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("zzz999"), newFakeClock(epoch))

		record, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com", CustomCode: "myLink1"})
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("myLink1"), record.Code)
	})

	t.Run("rejects an invalid url and persists nothing", func(t *testing.T) {
		repo := &failingStore{Repository: store.NewMemoryStore()}
		r := newRegistry(repo, sequence("abc123"), newFakeClock(epoch))

		for _, raw := range []string{"not-a-url", "", "ftp://example.com", "http://"} {
			_, err := r.Create(ctx, shortener.CreateParams{URL: raw})
			require.ErrorIs(t, err, shortener.ErrInvalidURL, raw)
		}

		assert.Zero(t, repo.puts)
	})

	t.Run("rejects a malformed custom code", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch))

		for _, code := range []string{"ab", "abcdefghijk", "has-dash", "with space"} {
			_, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com", CustomCode: code})
			require.ErrorIs(t, err, shortener.ErrInvalidShortcode, code)
		}
	})

	t.Run("collision never overwrites the existing record", func(t *testing.T) {
		repo := store.NewMemoryStore()
		r := newRegistry(repo, sequence("abc123"), newFakeClock(epoch))

		_, err := r.Create(ctx, shortener.CreateParams{URL: "https://first.example", CustomCode: "taken"})
		require.NoError(t, err)

		_, err = r.Create(ctx, shortener.CreateParams{URL: "https://second.example", CustomCode: "taken"})
		require.ErrorIs(t, err, shortener.ErrShortcodeCollision)

		stored, err := repo.Get(ctx, "taken")
		require.NoError(t, err)
		assert.Equal(t, "https://first.example", stored.OriginalURL)
	})

	t.Run("reserved codes collide", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch),
			shortener.WithReservedCodes("health", "shorturls"))

		_, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com", CustomCode: "health"})
		require.ErrorIs(t, err, shortener.ErrShortcodeCollision)
	})

	t.Run("generated reserved codes are skipped", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("health", "abc123"), newFakeClock(epoch),
			shortener.WithReservedCodes("health"))

		record, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com"})
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("abc123"), record.Code)
	})

	t.Run("retries generated codes that are taken", func(t *testing.T) {
		repo := store.NewMemoryStore()
		r := newRegistry(repo, sequence("first1", "first1", "second"), newFakeClock(epoch))

		a, err := r.Create(ctx, shortener.CreateParams{URL: "https://a.example"})
		require.NoError(t, err)

		b, err := r.Create(ctx, shortener.CreateParams{URL: "https://b.example"})
		require.NoError(t, err)

		assert.Equal(t, shortener.Code("first1"), a.Code)
		assert.Equal(t, shortener.Code("second"), b.Code)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		repo := store.NewMemoryStore()
		r := newRegistry(repo, sequence("same01"), newFakeClock(epoch), shortener.WithMaxAttempts(3))

		_, err := r.Create(ctx, shortener.CreateParams{URL: "https://a.example"})
		require.NoError(t, err)

		_, err = r.Create(ctx, shortener.CreateParams{URL: "https://b.example"})
		require.ErrorIs(t, err, shortener.ErrExhausted)
	})

	t.Run("concurrent creates with the same custom code", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			success  int
			collided int
		)

		for range 10 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com", CustomCode: "race01"})

				mu.Lock()
				defer mu.Unlock()

				switch {
				case err == nil:
					success++
				case assert.ErrorIs(t, err, shortener.ErrShortcodeCollision):
					collided++
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, 1, success)
		assert.Equal(t, 9, collided)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		repo := &failingStore{Repository: store.NewMemoryStore(), failPut: true}
		r := newRegistry(repo, sequence("abc123"), newFakeClock(epoch))

		_, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com"})
		require.ErrorIs(t, err, errBackend)

		repo = &failingStore{Repository: store.NewMemoryStore(), failExists: true}
		r = newRegistry(repo, sequence("abc123"), newFakeClock(epoch))

		_, err = r.Create(ctx, shortener.CreateParams{URL: "https://example.com", CustomCode: "custom"})
		require.ErrorIs(t, err, errBackend)
		assert.Zero(t, repo.puts)
	})
}

func TestRegistry_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves a live code", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch))
		created, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com", ValidityMinutes: 1})
		require.NoError(t, err)

		record, err := r.Resolve(ctx, created.Code)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", record.OriginalURL)
	})

	t.Run("unknown code", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch))

		_, err := r.Resolve(ctx, "nope")
		require.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("expires after validity but keeps statistics", func(t *testing.T) {
		clock := newFakeClock(epoch)
		repo := store.NewMemoryStore()
		r := newRegistry(repo, sequence("abc123"), clock)

		created, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com", ValidityMinutes: 1})
		require.NoError(t, err)

		clock.Advance(time.Minute)
		_, err = r.Resolve(ctx, created.Code)
		require.NoError(t, err, "still valid at exactly the expiry instant")

		clock.Advance(time.Second)
		_, err = r.Resolve(ctx, created.Code)
		require.ErrorIs(t, err, shortener.ErrExpired)

		record, analytics, err := r.Statistics(ctx, created.Code)
		require.NoError(t, err)
		assert.Equal(t, created.Code, record.Code)
		assert.Equal(t, 0, analytics.TotalClicks)

		exists, err := repo.Exists(ctx, created.Code)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		r := newRegistry(&failingStore{Repository: store.NewMemoryStore(), failGet: true}, sequence("abc123"), newFakeClock(epoch))

		_, err := r.Resolve(ctx, "abc123")
		require.ErrorIs(t, err, errBackend)
		assert.NotErrorIs(t, err, shortener.ErrNotFound)
	})
}

func TestRegistry_Statistics(t *testing.T) {
	ctx := context.Background()

	t.Run("returns record and clicks", func(t *testing.T) {
		clock := newFakeClock(epoch)
		repo := store.NewMemoryStore()
		r := newRegistry(repo, sequence("abc123"), clock)
		rec := shortener.NewRecorder(repo, shortener.StaticLocator("Tokyo, JP"), zap.NewNop()).WithClock(clock.Now)

		created, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com"})
		require.NoError(t, err)

		for range 3 {
			clock.Advance(time.Second)
			require.NoError(t, rec.RecordClick(ctx, shortener.Click{Code: created.Code}))
		}

		record, analytics, err := r.Statistics(ctx, created.Code)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", record.OriginalURL)
		assert.Equal(t, 3, analytics.TotalClicks)
		require.Len(t, analytics.Clicks, 3)

		for i := 1; i < len(analytics.Clicks); i++ {
			assert.True(t, analytics.Clicks[i].Timestamp.After(analytics.Clicks[i-1].Timestamp))
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		r := newRegistry(store.NewMemoryStore(), sequence("abc123"), newFakeClock(epoch))

		_, _, err := r.Statistics(ctx, "nope")
		require.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("analytics failure is wrapped", func(t *testing.T) {
		repo := &failingStore{Repository: store.NewMemoryStore(), failAnalytics: true}
		r := newRegistry(repo, sequence("abc123"), newFakeClock(epoch))

		created, err := r.Create(ctx, shortener.CreateParams{URL: "https://example.com"})
		require.NoError(t, err)

		_, _, err = r.Statistics(ctx, created.Code)
		require.ErrorIs(t, err, errBackend)
	})
}
