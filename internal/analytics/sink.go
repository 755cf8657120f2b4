package analytics

import (
	"context"

	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// Sink handles analytics events delivered by a consumer.
type Sink interface {
	HandleURLCreated(ctx context.Context, event *URLCreatedEvent) error
	HandleURLAccessed(ctx context.Context, event *URLAccessedEvent) error
}

// RecorderSink records access events as clicks and logs creations.
type RecorderSink struct {
	recorder *shortener.Recorder
	logger   *zap.Logger
}

// NewRecorderSink creates a sink that appends clicks through recorder.
func NewRecorderSink(recorder *shortener.Recorder, logger *zap.Logger) *RecorderSink {
	return &RecorderSink{
		recorder: recorder,
		logger:   logger.With(logging.Package(logging.PackageCronJob)),
	}
}

func (s *RecorderSink) HandleURLCreated(_ context.Context, event *URLCreatedEvent) error {
	s.logger.Info("url created event received",
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.Int("validity", event.ValidityMinutes),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

// HandleURLAccessed records the click. Returning an error nacks the message so it is redelivered.
func (s *RecorderSink) HandleURLAccessed(ctx context.Context, event *URLAccessedEvent) error {
	err := s.recorder.RecordClick(ctx, shortener.Click{
		Code:          shortener.Code(event.Code),
		Referrer:      event.Referrer,
		UserAgent:     event.UserAgent,
		ClientAddress: event.ClientIP,
		At:            event.AccessedAt,
	})
	if err != nil {
		return err
	}

	s.logger.Debug("url accessed event recorded", zap.String("code", event.Code))

	return nil
}

// Compile-time check.
var _ Sink = (*RecorderSink)(nil)
