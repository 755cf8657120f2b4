package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

const (
	urlKeyPrefix        = "url:"
	clicksKeyPrefix     = "clicks:"
	clickCountKeyPrefix = "clicks:count:"
)

// RedisStore is a Redis implementation of shortener.Repository.
// Records live in a hash per code; clicks are a list plus a counter updated in one MULTI.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed URL store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	n, err := r.client.Exists(ctx, urlKeyPrefix+string(code)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *RedisStore) Get(ctx context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	fields, err := r.client.HGetAll(ctx, urlKeyPrefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, shortener.ErrNotFound
	}

	return recordFromHash(fields)
}

func (r *RedisStore) Put(ctx context.Context, record *shortener.URLRecord) error {
	return r.client.HSet(ctx, urlKeyPrefix+string(record.Code), recordHash(record)).Err()
}

func (r *RedisStore) Analytics(ctx context.Context, code shortener.Code) (*shortener.Analytics, error) {
	var (
		count *redis.StringCmd
		raw   *redis.StringSliceCmd
	)

	// MULTI keeps the counter and the list from straddling a concurrent AppendClick.
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Get(ctx, clickCountKeyPrefix+string(code))
		raw = pipe.LRange(ctx, clicksKeyPrefix+string(code), 0, -1)

		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	analytics := shortener.EmptyAnalytics()

	if total, err := count.Int(); err == nil {
		analytics.TotalClicks = total
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("parse click count: %w", err)
	}

	for _, item := range raw.Val() {
		var click shortener.ClickRecord
		if err := json.Unmarshal([]byte(item), &click); err != nil {
			return nil, fmt.Errorf("decode click: %w", err)
		}

		analytics.Clicks = append(analytics.Clicks, click)
	}

	return analytics, nil
}

func (r *RedisStore) AppendClick(ctx context.Context, code shortener.Code, click shortener.ClickRecord) error {
	payload, err := json.Marshal(click)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, clicksKeyPrefix+string(code), payload)
		pipe.Incr(ctx, clickCountKeyPrefix+string(code))

		return nil
	})

	return err
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func recordHash(record *shortener.URLRecord) map[string]any {
	return map[string]any{
		"code":         string(record.Code),
		"original_url": record.OriginalURL,
		"created_at":   record.CreatedAt.UnixMilli(),
		"expires_at":   record.ExpiresAt.UnixMilli(),
		"validity":     record.ValidityMinutes,
	}
}

func recordFromHash(fields map[string]string) (*shortener.URLRecord, error) {
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	validity, err := strconv.Atoi(fields["validity"])
	if err != nil {
		return nil, fmt.Errorf("parse validity: %w", err)
	}

	return &shortener.URLRecord{
		Code:            shortener.Code(fields["code"]),
		OriginalURL:     fields["original_url"],
		CreatedAt:       time.UnixMilli(createdAt).UTC(),
		ExpiresAt:       time.UnixMilli(expiresAt).UTC(),
		ValidityMinutes: validity,
	}, nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisStore)(nil)
