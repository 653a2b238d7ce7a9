package provider

import (
	"context"
	"time"

	"github.com/jmcardon/http4s/observability"
)

// WithMetrics returns a Middleware recording one operation per Execute,
// labeled by the input's operation and the output's outcome. Failures are
// also counted by error kind.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{wrapped: wrapped[I, O]{inner}, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	wrapped[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)

	if err != nil {
		m.metrics.RecordError(ctx, errorKindOf(err), m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), operationOf(input), outcomeOf(output, err), time.Since(start))
	return output, err
}
