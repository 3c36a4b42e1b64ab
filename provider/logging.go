package provider

import (
	"context"
	"time"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/logger"
)

// WithLogging returns a Middleware that logs each Execute call with the
// provider name, duration and, on failure, the error code.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &loggingRR[I, O]{inner: inner, log: log}
	}
}

type loggingRR[I, O any] struct {
	inner RequestResponse[I, O]
	log   *logger.Logger
}

func (l *loggingRR[I, O]) Name() string                         { return l.inner.Name() }
func (l *loggingRR[I, O]) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }

func (l *loggingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := l.inner.Execute(ctx, input)

	fields := logger.Fields(
		logger.FieldProvider, l.inner.Name(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)
	log := l.log.WithContext(ctx)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		if code := goerrors.CodeOf(err); code != "" {
			fields[logger.FieldErrorCode] = string(code)
		}
		log.Warn("provider call failed", fields)
	} else {
		log.Debug("provider call ok", fields)
	}
	return output, err
}
