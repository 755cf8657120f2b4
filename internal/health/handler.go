package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/logging"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Handler handles health check operations.
type Handler struct {
	storage Checker
	backend string
	logger  *zap.Logger
}

// NewHandler creates a new health handler for the storage backend named backend.
func NewHandler(storage Checker, backend string, logger *zap.Logger) *Handler {
	return &Handler{
		storage: storage,
		backend: backend,
		logger:  logger.With(logging.Package(logging.PackageHandler)),
	}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status  string `example:"ok"      json:"status"`
		Storage string `example:"healthy" json:"storage"`
		Backend string `example:"file"    json:"backend"`
	}
}

// Check performs a health check of the application and its storage.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Backend = h.backend

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("storage health check failed", zap.String("backend", h.backend), zap.Error(err))

		resp.Body.Storage = "unhealthy"
		resp.Body.Status = "degraded"
	} else {
		resp.Body.Storage = "healthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, h.Check)
}
