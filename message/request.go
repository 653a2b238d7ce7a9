package message

import (
	"mime"
	"net/url"
)

// Request is an abstract outgoing HTTP request. It is owned by the caller and
// must not be mutated while a dispatch is in flight.
type Request struct {
	Method  Method
	URI     *url.URL
	Headers Headers
	Entity  Entity
}

// NewRequest builds a request for rawURL without a body.
func NewRequest(method Method, rawURL string, headers ...Header) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &Request{Method: method, URI: u, Headers: headers, Entity: NoEntity}, nil
}

// WithEntity returns a shallow copy of r carrying e.
func (r *Request) WithEntity(e Entity) *Request {
	cp := *r
	cp.Entity = e
	return &cp
}

// Operation returns the method, labeling spans and metrics.
func (r *Request) Operation() string {
	if r == nil {
		return ""
	}
	return string(r.Method)
}

// ContentType returns the media type of the Content-Type header, or "" when
// the header is missing or malformed.
func (r *Request) ContentType() string {
	raw := r.Headers.Get("Content-Type")
	if raw == "" {
		return ""
	}
	if _, _, err := mime.ParseMediaType(raw); err != nil {
		return ""
	}
	return raw
}
