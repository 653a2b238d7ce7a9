// Package provider defines the small set of generic contracts the client is
// built on.
//
//   - RequestResponse[I, O]: one input, one output. The HTTP client's
//     Dispatch is exposed through it.
//   - Iterator[T]: pull-based, single-pass access to a stream of values.
//     Request and response bodies are Iterator[[]byte].
//
// # Middleware
//
// Middleware[I, O] wraps a RequestResponse provider. Use Chain to compose:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("http4s"),
//	)(client)
package provider
