package provider

import (
	"context"
	"errors"
)

// Middleware transforms a RequestResponse provider by wrapping it.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes multiple middlewares into one. The first middleware is
// outermost: Chain(a, b, c)(p) is a(b(c(p))).
func Chain[I, O any](middlewares ...Middleware[I, O]) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// wrapped delegates Name and IsAvailable to the inner provider.
type wrapped[I, O any] struct {
	inner RequestResponse[I, O]
}

func (w wrapped[I, O]) Name() string                         { return w.inner.Name() }
func (w wrapped[I, O]) IsAvailable(ctx context.Context) bool { return w.inner.IsAvailable(ctx) }

const defaultOperation = "execute"

func operationOf(input any) string {
	if op, ok := input.(Operation); ok {
		if name := op.Operation(); name != "" {
			return name
		}
	}
	return defaultOperation
}

// outcomeOf returns "error" on failure, the output's own summary when it
// has one, and "ok" otherwise.
func outcomeOf(output any, err error) string {
	if err != nil {
		return "error"
	}
	if o, ok := output.(Outcome); ok {
		if s := o.Outcome(); s != "" {
			return s
		}
	}
	return "ok"
}

func errorKindOf(err error) string {
	var k ErrorKind
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "unknown"
}
