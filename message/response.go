package message

import (
	"strconv"
	"sync"

	"github.com/jmcardon/http4s/provider"
)

// Response is an abstract HTTP response.
type Response struct {
	Status  Status
	Version Version
	Headers Headers
	// Body is single-pass; it must not be read after the owning
	// DisposableResponse is disposed.
	Body provider.Iterator[[]byte]
}

// DisposableResponse pairs a Response with the action releasing the
// transport resources behind its body.
type DisposableResponse struct {
	Response
	once    sync.Once
	dispose func() error
}

// NewDisposableResponse wraps resp. dispose may be nil.
func NewDisposableResponse(resp Response, dispose func() error) *DisposableResponse {
	return &DisposableResponse{Response: resp, dispose: dispose}
}

// Outcome returns the status code, e.g. "404".
func (r *DisposableResponse) Outcome() string {
	if r == nil {
		return ""
	}
	return strconv.Itoa(r.Status.Code())
}

// Dispose runs the disposal action. Only the first call does anything; later
// calls return nil.
func (r *DisposableResponse) Dispose() error {
	var err error
	r.once.Do(func() {
		if r.dispose != nil {
			err = r.dispose()
		}
	})
	return err
}
