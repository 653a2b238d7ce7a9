package provider

import (
	"context"
	"time"

	"github.com/jmcardon/http4s/logger"
)

// WithLogging returns a Middleware that logs each Execute call. Failures are
// logged at error level with their kind; successes at debug.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &loggingRR[I, O]{wrapped: wrapped[I, O]{inner}, log: log}
	}
}

type loggingRR[I, O any] struct {
	wrapped[I, O]
	log *logger.Logger
}

func (l *loggingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := l.inner.Execute(ctx, input)

	fields := logger.MergeWithDuration(logger.Fields(
		"provider", l.inner.Name(),
		"operation", operationOf(input),
		"outcome", outcomeOf(output, err),
	), time.Since(start))
	if err != nil {
		fields[logger.FieldError] = err.Error()
		fields["kind"] = errorKindOf(err)
		l.log.Error("provider execute failed", fields)
		return output, err
	}
	l.log.Debug("provider execute ok", fields)
	return output, nil
}
