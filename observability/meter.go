package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/jmcardon/http4s/logger"
)

// InitMeter installs a meter provider exporting to cfg.Endpoint every
// cfg.MetricInterval. The caller shuts it down.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.WithComponent("observability").Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// DispatchLabels describe one completed dispatch.
type DispatchLabels struct {
	Client string
	Method string
	// Status is the status code, or "error" when no response was produced.
	Status   string
	Protocol string
}

// Metrics holds the client's metric instruments.
type Metrics struct {
	dispatchTotal     metric.Int64Counter
	dispatchDuration  metric.Float64Histogram
	dispatchActive    metric.Int64UpDownCounter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	counter := func(dst *metric.Int64Counter, name, desc string) {
		if err == nil {
			*dst, err = meter.Int64Counter(name, metric.WithDescription(desc))
			err = wrapInstrumentErr(name, err)
		}
	}
	histogram := func(dst *metric.Float64Histogram, name, desc string) {
		if err == nil {
			*dst, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
			err = wrapInstrumentErr(name, err)
		}
	}

	counter(&m.dispatchTotal, "http.client.dispatch.total", "Completed dispatches")
	histogram(&m.dispatchDuration, "http.client.dispatch.duration", "Time from dispatch until the response head is available")
	if err == nil {
		m.dispatchActive, err = meter.Int64UpDownCounter("http.client.dispatch.active",
			metric.WithDescription("Dispatches awaiting a response"))
		err = wrapInstrumentErr("http.client.dispatch.active", err)
	}
	counter(&m.operationTotal, "provider.operation.total", "Provider operations by outcome")
	histogram(&m.operationDuration, "provider.operation.duration", "Provider operation duration")
	counter(&m.errorTotal, "provider.error.total", "Provider failures by kind")
	if err != nil {
		return nil, err
	}
	return m, nil
}

func wrapInstrumentErr(name string, err error) error {
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	return nil
}

// RecordDispatchStart increments the in-flight dispatch count.
func (m *Metrics) RecordDispatchStart(ctx context.Context) {
	m.dispatchActive.Add(ctx, 1)
}

// RecordDispatchEnd decrements the in-flight count and records the dispatch.
func (m *Metrics) RecordDispatchEnd(ctx context.Context, l DispatchLabels, duration time.Duration) {
	m.dispatchActive.Add(ctx, -1)
	m.dispatchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", l.Client),
		attribute.String("method", l.Method),
		attribute.String("status", l.Status),
		attribute.String("protocol", l.Protocol),
	))
	m.dispatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("client", l.Client),
		attribute.String("method", l.Method),
	))
}

// RecordOperation records one provider operation.
func (m *Metrics) RecordOperation(ctx context.Context, provider, operation, outcome string, duration time.Duration) {
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	))
}

// RecordError counts a provider failure of the given kind.
func (m *Metrics) RecordError(ctx context.Context, kind, provider string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("provider", provider),
	))
}
