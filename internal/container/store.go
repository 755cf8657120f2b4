package container

import (
	"fmt"

	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

// StorePackage provides the shortener.Repository selected by Options.Storage.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.Storage {
		case StorageFile:
			return store.NewFileStore(opts.DataDir, logger)
		case StorageMemory:
			return store.NewMemoryStore(), nil
		case StorageRedis:
			conn, err := do.Invoke[*RedisConn](i)
			if err != nil {
				return nil, err
			}

			return store.NewRedisStore(conn.Client), nil
		case StoragePostgres:
			pg, err := do.Invoke[*PostgresConn](i)
			if err != nil {
				return nil, err
			}

			var repo shortener.Repository = store.NewPostgresStore(pg.Pool)

			if opts.CacheTTL > 0 {
				conn, err := do.Invoke[*RedisConn](i)
				if err != nil {
					return nil, err
				}

				repo = store.NewRedisCacheRepository(repo, conn.Client, opts.CacheTTL)
			}

			return repo, nil
		default:
			return nil, fmt.Errorf("%w: unknown storage %q", ErrInvalidOptions, opts.Storage)
		}
	})
}

// ShortenerPackage provides the Registry and the Recorder.
func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Registry, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		generator, err := shortener.NewGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewRegistry(repo, generator, logger,
			shortener.WithMaxAttempts(opts.MaxAttempts),
			shortener.WithDefaultValidity(opts.DefaultValidity),
			shortener.WithReservedCodes(reservedCodes()...),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Recorder, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		return shortener.NewRecorder(repo, shortener.RandomLocator{}, logger), nil
	})
}
