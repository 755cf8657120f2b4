package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

const cacheKeyPrefix = "cache:url:"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisCacheRepository wraps a Repository with Redis caching for record reads.
// Analytics always go to the underlying store.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCacheRepository) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	if n, err := r.client.Exists(ctx, cacheKeyPrefix+string(code)).Result(); err == nil && n > 0 {
		return true, nil
	}

	return r.store.Exists(ctx, code)
}

// Get retrieves a record by code, checking the cache first.
func (r *RedisCacheRepository) Get(ctx context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	if record, ok := r.getFromCache(ctx, code); ok {
		return record, nil
	}

	record, err := r.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheRecord(ctx, record)

	return record, nil
}

// Put stores a record in the underlying store and updates the cache.
func (r *RedisCacheRepository) Put(ctx context.Context, record *shortener.URLRecord) error {
	if err := r.store.Put(ctx, record); err != nil {
		return err
	}

	r.cacheRecord(ctx, record)

	return nil
}

func (r *RedisCacheRepository) Analytics(ctx context.Context, code shortener.Code) (*shortener.Analytics, error) {
	return r.store.Analytics(ctx, code)
}

func (r *RedisCacheRepository) AppendClick(ctx context.Context, code shortener.Code, click shortener.ClickRecord) error {
	return r.store.AppendClick(ctx, code, click)
}

// Ping checks both the cache and the underlying store.
func (r *RedisCacheRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return err
	}

	if pinger, ok := r.store.(Pinger); ok {
		return pinger.Ping(ctx)
	}

	return nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.URLRecord, bool) {
	fields, err := r.client.HGetAll(ctx, cacheKeyPrefix+string(code)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}

	record, err := recordFromHash(fields)
	if err != nil {
		return nil, false
	}

	return record, true
}

func (r *RedisCacheRepository) cacheRecord(ctx context.Context, record *shortener.URLRecord) {
	key := cacheKeyPrefix + string(record.Code)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, recordHash(record))

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
