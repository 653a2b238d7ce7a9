// Package observability provides OpenTelemetry tracing and metrics for the
// HTTP client.
//
// Export is configured by Config. Init installs OTLP/HTTP providers only
// when an endpoint is set; otherwise spans and instruments use whatever
// global providers the application installed.
//
//	providers, err := observability.Init(ctx, cfg, true, true)
//	defer providers.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch)
//	defer span.End()
//
//	metrics, err := observability.NewMetrics(observability.Meter("http4s"))
//	metrics.RecordDispatchEnd(ctx, observability.DispatchLabels{Method: "GET", Status: "200"}, d)
package observability
