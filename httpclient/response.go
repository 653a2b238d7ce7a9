package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/message"
)

// toResponse translates a native response. On an invalid status the source
// is closed before the error is returned.
func (c *Client) toResponse(native *engine.Response) (*message.DisposableResponse, error) {
	if native == nil {
		return nil, NewTranslationError(errNilResponse)
	}
	src := native.Body
	if src == nil {
		src = http.NoBody
	}

	status, err := message.NewStatus(native.StatusCode)
	if err != nil {
		if cerr := src.Close(); cerr != nil {
			c.log.Warn("closing rejected response failed", logger.ErrorFields("close", cerr))
		}
		return nil, NewTranslationError(err)
	}

	body := newBodyStream(src, c.blocker, c.chunkSize)
	resp := message.Response{
		Status:  status,
		Version: toVersion(native.Protocol),
		Headers: toHeaders(native.Headers),
		Body:    body,
	}
	return message.NewDisposableResponse(resp, body.Close), nil
}

// toVersion maps the transport protocol. Unknown protocols read as HTTP/1.1.
func toVersion(p engine.Protocol) message.Version {
	switch p {
	case engine.HTTP2:
		return message.HTTP20
	case engine.HTTP11:
		return message.HTTP11
	case engine.HTTP10:
		return message.HTTP10
	default:
		return message.HTTP11
	}
}

// toHeaders emits one header per (name, value) pair, names first-seen order,
// values in order per name.
func toHeaders(h *engine.Headers) message.Headers {
	out := make(message.Headers, 0, h.Len())
	for _, name := range h.Names() {
		for _, v := range h.Values(name) {
			out = append(out, message.Header{Name: name, Value: v})
		}
	}
	return out
}

var errNilResponse = errors.New("transport returned no response")

type readResult struct {
	chunk []byte
	err   error
}

// bodyStream is a pull-style view of a ByteSource. Reads run on the blocking
// executor; the caller's goroutine only waits for them.
type bodyStream struct {
	src       engine.ByteSource
	blocker   engine.Executor
	chunkSize int

	// Owned by the goroutine calling Next.
	pending chan readResult
	done    bool
	err     error

	closed    atomic.Bool
	closeOnce sync.Once
}

func newBodyStream(src engine.ByteSource, blocker engine.Executor, chunkSize int) *bodyStream {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &bodyStream{src: src, blocker: blocker, chunkSize: chunkSize}
}

// Next returns the next chunk of at most chunkSize bytes. A canceled ctx
// abandons the wait but not the read; the next call picks its result up.
// Only a failed read of the source ends the stream with an error.
func (b *bodyStream) Next(ctx context.Context) ([]byte, bool, error) {
	if b.closed.Load() {
		return nil, false, ErrBodyDisposed
	}
	if b.done {
		return nil, false, b.err
	}

	if b.pending == nil {
		ch := make(chan readResult, 1)
		buf := make([]byte, b.chunkSize)
		// A read that was not admitted leaves the stream usable.
		if err := engine.SubmitContext(ctx, b.blocker, func() {
			n, err := io.ReadAtLeast(b.src, buf, 1)
			ch <- readResult{chunk: buf[:n], err: err}
		}); err != nil {
			return nil, false, err
		}
		b.pending = ch
	}

	select {
	case r := <-b.pending:
		b.pending = nil
		if r.err != nil {
			b.done = true
			if errors.Is(r.err, io.EOF) {
				return nil, false, nil
			}
			if b.closed.Load() {
				r.err = ErrBodyDisposed
			}
			b.err = r.err
			return nil, false, r.err
		}
		return r.chunk, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close closes the source. Later calls return nil.
func (b *bodyStream) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		err = b.src.Close()
	})
	return err
}
