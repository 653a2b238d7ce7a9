package provider

import "context"

// Provider is the base interface all providers must implement.
type Provider interface {
	Name() string
	// IsAvailable reports whether the provider accepts work.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse represents a provider that takes one input and returns one output.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Operation is implemented by inputs that name the operation they request,
// such as an HTTP method. Middlewares use it to label spans, metrics and logs.
type Operation interface {
	Operation() string
}

// Outcome is implemented by outputs that summarize their result, such as a
// status code.
type Outcome interface {
	Outcome() string
}

// ErrorKind is implemented by errors that carry a classification.
type ErrorKind interface {
	Kind() string
}
