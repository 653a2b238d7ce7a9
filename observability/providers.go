package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Providers holds the SDK providers installed by Init.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Init installs an exporting tracer provider when tracing is set and an
// exporting meter provider when metrics is set. Nothing is installed when
// cfg has no endpoint.
func Init(ctx context.Context, cfg Config, tracing, metrics bool) (*Providers, error) {
	p := &Providers{}
	if !cfg.Enabled() {
		return p, nil
	}
	if tracing {
		tp, err := InitTracer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.Tracer = tp
	}
	if metrics {
		mp, err := InitMeter(ctx, cfg)
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
		p.Meter = mp
	}
	return p, nil
}

// Shutdown flushes and stops every installed provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer: %w", err))
		}
	}
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter: %w", err))
		}
	}
	return errors.Join(errs...)
}
