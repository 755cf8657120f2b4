package middleware

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/logging"
	"go.uber.org/zap"
)

// AccessLog logs every request on arrival and again once the response status is known.
func AccessLog(logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	logger = logger.With(logging.Package(logging.PackageMiddleware))

	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		method := ctx.Method()
		path := ctx.URL().Path

		logger.Info("request received",
			zap.String("method", method),
			zap.String("path", path),
		)

		next(ctx)

		status := ctx.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		}

		if status >= 500 {
			logger.Error("response sent", fields...)

			return
		}

		logger.Info("response sent", fields...)
	}
}
