package engine

import (
	"context"
	"io"
	"net/url"
)

// Sink receives outgoing body bytes.
type Sink = io.Writer

// RequestBody is a push-style outgoing body.
type RequestBody interface {
	// ContentType returns the media type to declare, or "" for none.
	ContentType() string
	// ContentLength returns the body length, or -1 when unknown.
	ContentLength() int64
	// WriteTo writes the whole body into sink. It is called once, on a
	// transport goroutine. A non-nil error aborts the call.
	WriteTo(ctx context.Context, sink Sink) error
}

// Request is a native request. A nil Body means the request carries no body.
type Request struct {
	Method  string
	URL     *url.URL
	Headers *Headers
	Body    RequestBody
}

// EmptyBody returns a body that writes zero bytes.
func EmptyBody(contentType string) RequestBody {
	return emptyBody{contentType: contentType}
}

type emptyBody struct{ contentType string }

func (b emptyBody) ContentType() string                     { return b.contentType }
func (b emptyBody) ContentLength() int64                    { return 0 }
func (b emptyBody) WriteTo(_ context.Context, _ Sink) error { return nil }
