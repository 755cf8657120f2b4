package shortener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/logging"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the generate-and-check loop in Create.
const DefaultMaxAttempts = 100

// CreateParams describes a request to shorten a URL.
type CreateParams struct {
	URL             string
	ValidityMinutes int
	CustomCode      string
}

// Registry owns the shortcode lifecycle: creation, resolution and statistics lookup.
type Registry struct {
	store           Repository
	generate        CodeGenerator
	logger          *zap.Logger
	now             func() time.Time
	maxAttempts     int
	defaultValidity int
	reserved        map[Code]struct{}

	// createMu serializes the existence check and the write of a new code.
	createMu sync.Mutex
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// WithMaxAttempts sets how many generated candidates Create tries before giving up.
func WithMaxAttempts(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithDefaultValidity sets the validity applied when a request has none.
func WithDefaultValidity(minutes int) RegistryOption {
	return func(r *Registry) {
		if minutes > 0 && minutes <= MaxValidityMinutes {
			r.defaultValidity = minutes
		}
	}
}

// WithReservedCodes rejects the given custom codes as collisions.
func WithReservedCodes(codes ...string) RegistryOption {
	return func(r *Registry) {
		for _, c := range codes {
			r.reserved[Code(c)] = struct{}{}
		}
	}
}

// NewRegistry creates a new registry backed by store.
func NewRegistry(store Repository, generator CodeGenerator, logger *zap.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:           store,
		generate:        generator,
		logger:          logger.With(logging.Package(logging.PackageDomain)),
		now:             time.Now,
		maxAttempts:     DefaultMaxAttempts,
		defaultValidity: DefaultValidityMinutes,
		reserved:        make(map[Code]struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Create validates the request, picks a free code and persists a new record.
func (r *Registry) Create(ctx context.Context, params CreateParams) (*URLRecord, error) {
	r.logger.Info("creating short url", zap.String("url", params.URL))

	if !IsValidURL(params.URL) {
		r.logger.Warn("invalid url provided", zap.String("url", params.URL))

		return nil, ErrInvalidURL
	}

	if params.CustomCode != "" && !IsValidShortcode(params.CustomCode) {
		r.logger.Warn("invalid shortcode format", zap.String("code", params.CustomCode))

		return nil, ErrInvalidShortcode
	}

	if params.ValidityMinutes > MaxValidityMinutes {
		r.logger.Warn("validity too long", zap.Int("validity", params.ValidityMinutes))

		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidValidity, MaxValidityMinutes)
	}

	validity := params.ValidityMinutes
	if validity <= 0 {
		validity = r.defaultValidity
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	code, err := r.pickCode(ctx, params.CustomCode)
	if err != nil {
		return nil, err
	}

	createdAt := r.now().UTC().Truncate(time.Millisecond)
	record := &URLRecord{
		Code:            code,
		OriginalURL:     params.URL,
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(time.Duration(validity) * time.Minute),
		ValidityMinutes: validity,
	}

	if err = r.store.Put(ctx, record); err != nil {
		r.logger.Error("failed to save short url", zap.String("code", string(code)), zap.Error(err))

		return nil, fmt.Errorf("save short url: %w", err)
	}

	r.logger.Info("short url created",
		zap.String("code", string(code)),
		zap.Time("expiresAt", record.ExpiresAt),
	)

	return record, nil
}

func (r *Registry) pickCode(ctx context.Context, custom string) (Code, error) {
	if custom != "" {
		code := Code(custom)

		if _, reserved := r.reserved[code]; reserved {
			r.logger.Warn("shortcode collision", zap.String("code", custom), zap.Bool("reserved", true))

			return "", ErrShortcodeCollision
		}

		exists, err := r.store.Exists(ctx, code)
		if err != nil {
			r.logger.Error("failed to check shortcode", zap.String("code", custom), zap.Error(err))

			return "", fmt.Errorf("check shortcode: %w", err)
		}

		if exists {
			r.logger.Warn("shortcode collision", zap.String("code", custom))

			return "", ErrShortcodeCollision
		}

		return code, nil
	}

	for range r.maxAttempts {
		code := Code(r.generate())

		if _, reserved := r.reserved[code]; reserved {
			continue
		}

		exists, err := r.store.Exists(ctx, code)
		if err != nil {
			r.logger.Error("failed to check shortcode", zap.String("code", string(code)), zap.Error(err))

			return "", fmt.Errorf("check shortcode: %w", err)
		}

		if !exists {
			return code, nil
		}

		r.logger.Debug("generated shortcode already taken", zap.String("code", string(code)))
	}

	r.logger.Error("shortcode generation exhausted", zap.Int("attempts", r.maxAttempts))

	return "", ErrExhausted
}

// Resolve returns the record for code unless it is unknown or expired.
// Expired records are kept so their statistics stay available.
func (r *Registry) Resolve(ctx context.Context, code Code) (*URLRecord, error) {
	record, err := r.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if record.Expired(r.now()) {
		r.logger.Warn("expired shortcode accessed", zap.String("code", string(code)))

		return nil, ErrExpired
	}

	return record, nil
}

// Statistics returns the record and its analytics, regardless of expiry.
func (r *Registry) Statistics(ctx context.Context, code Code) (*URLRecord, *Analytics, error) {
	record, err := r.lookup(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	analytics, err := r.store.Analytics(ctx, code)
	if err != nil {
		r.logger.Error("failed to load analytics", zap.String("code", string(code)), zap.Error(err))

		return nil, nil, fmt.Errorf("load analytics: %w", err)
	}

	r.logger.Info("statistics retrieved",
		zap.String("code", string(code)),
		zap.Int("totalClicks", analytics.TotalClicks),
	)

	return record, analytics, nil
}

func (r *Registry) lookup(ctx context.Context, code Code) (*URLRecord, error) {
	record, err := r.store.Get(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.logger.Warn("shortcode not found", zap.String("code", string(code)))

			return nil, ErrNotFound
		}

		r.logger.Error("failed to load short url", zap.String("code", string(code)), zap.Error(err))

		return nil, fmt.Errorf("load short url: %w", err)
	}

	return record, nil
}
