package shortener

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/shortlink/internal/logging"
	"go.uber.org/zap"
)

const (
	defaultReferrer  = "Direct"
	defaultUserAgent = "Unknown"
)

// Click carries the request context of a single redirect.
type Click struct {
	Code          Code
	Referrer      string
	UserAgent     string
	ClientAddress string
	// At is when the redirect happened. Zero means now.
	At time.Time
}

// Recorder appends click records for resolved codes.
type Recorder struct {
	store   Repository
	locator Locator
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecorder creates a new click recorder.
func NewRecorder(store Repository, locator Locator, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:   store,
		locator: locator,
		logger:  logger.With(logging.Package(logging.PackageDomain)),
		now:     time.Now,
	}
}

// WithClock returns a copy of the recorder using now as its time source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	clone := *r
	clone.now = now

	return &clone
}

// RecordClick stores a click for c.Code. Callers must resolve the code first.
func (r *Recorder) RecordClick(ctx context.Context, c Click) error {
	record := ClickRecord{
		Timestamp: r.timestamp(c.At),
		Referrer:  orDefault(c.Referrer, defaultReferrer),
		UserAgent: orDefault(c.UserAgent, defaultUserAgent),
		Location:  r.locator.Locate(ctx, c.ClientAddress),
	}

	if err := r.store.AppendClick(ctx, c.Code, record); err != nil {
		r.logger.Error("failed to record click", zap.String("code", string(c.Code)), zap.Error(err))

		return fmt.Errorf("record click: %w", err)
	}

	r.logger.Debug("click recorded",
		zap.String("code", string(c.Code)),
		zap.String("location", record.Location),
	)

	return nil
}

func (r *Recorder) timestamp(at time.Time) time.Time {
	if at.IsZero() {
		at = r.now()
	}

	return at.UTC().Truncate(time.Millisecond)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}

	return v
}
