package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

type watermillLogger struct {
	logger *zap.Logger
}

// NewWatermillLogger adapts a zap logger to watermill's LoggerAdapter.
func NewWatermillLogger(logger *zap.Logger) watermill.LoggerAdapter {
	return &watermillLogger{logger: logger}
}

func (w *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (w *watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.logger.Info(msg, zapFields(fields)...)
}

func (w *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, zapFields(fields)...)
}

func (w *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, zapFields(fields)...)
}

func (w *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: w.logger.With(zapFields(fields)...)}
}

func zapFields(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}

	return out
}
