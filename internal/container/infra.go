package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// RedisConn owns the shared Redis client.
type RedisConn struct {
	Client *redis.Client
}

func (r *RedisConn) Shutdown() error {
	return r.Client.Close()
}

// PostgresConn owns the PostgreSQL pool.
type PostgresConn struct {
	Pool *pgxpool.Pool
}

func (p *PostgresConn) Shutdown() error {
	p.Pool.Close()

	return nil
}

// RedisPackage provides *RedisConn, failing fast when Redis is unreachable.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisConn, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect to redis at %s: %w", opts.RedisAddr, err)
		}

		return &RedisConn{Client: client}, nil
	})
}

// PostgresPackage provides *PostgresConn after applying schema migrations.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*PostgresConn, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if err := store.Migrate(opts.DatabaseURL, logger); err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}

		if err = pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		return &PostgresConn{Pool: pool}, nil
	})
}
