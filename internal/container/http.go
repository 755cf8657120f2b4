package container

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// reservedCodes are the fixed path segments huma and the routes own.
func reservedCodes() []string {
	return handlers.ReservedCodes
}

// HTTPPackage provides the chi router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		registry, err := do.Invoke[*shortener.Registry](i)
		if err != nil {
			return nil, err
		}

		recorder, err := do.Invoke[*shortener.Recorder](i)
		if err != nil {
			return nil, err
		}

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		publishers, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("Shortlink", "1.0.0"))
		api.UseMiddleware(middleware.AccessLog(logger), middleware.RequestMeta(api))

		urlHandler := handlers.NewURLHandler(
			registry,
			recorder,
			opts.ShortLinkBase(),
			handlers.ClickMode(opts.ClickMode),
			messaging.NewPublishFunc[analytics.URLCreatedEvent](publishers.Publisher(), analytics.TopicURLCreated),
			messaging.NewPublishFunc[analytics.URLAccessedEvent](publishers.Publisher(), analytics.TopicURLAccessed),
			logger,
		)

		handlers.RegisterRoutes(api, urlHandler)
		health.RegisterRoutes(api, health.NewHandler(storageChecker(repo), opts.Storage, logger))

		return api, nil
	})
}

func storageChecker(repo shortener.Repository) health.Checker {
	if checker, ok := repo.(health.Checker); ok {
		return checker
	}

	return health.CheckerFunc(func(context.Context) error { return nil })
}
