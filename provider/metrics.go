package provider

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/observability"
)

// WithMetrics returns a Middleware that records one operation sample per
// Execute call, labelled with operation.
func WithMetrics[I, O any](metrics *observability.Metrics, operation string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{inner: inner, metrics: metrics, operation: operation}
	}
}

type metricsRR[I, O any] struct {
	inner     RequestResponse[I, O]
	metrics   *observability.Metrics
	operation string
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)

	status := "ok"
	if err != nil {
		status = "error"
		if code := goerrors.CodeOf(err); code != "" {
			status = strings.ToLower(string(code))
		}
		m.metrics.RecordError(ctx, status, m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), m.operation, status, time.Since(start))
	return output, err
}
