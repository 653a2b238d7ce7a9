package httpclient

import (
	"context"
	"fmt"

	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/message"
)

// toNativeRequest translates req. The body is pushed by streamBody when the
// entity has known framing; GET and HEAD otherwise carry no body; every other
// method gets an empty body so the transport still frames one.
func (c *Client) toNativeRequest(req *message.Request) *engine.Request {
	headers := engine.NewHeaders()
	for _, h := range req.Headers {
		headers.Add(h.Name, h.Value)
	}

	native := &engine.Request{
		Method:  string(req.Method),
		URL:     req.URI,
		Headers: headers,
	}
	switch {
	case req.Entity.IsPresent():
		native.Body = &streamBody{
			entity:      req.Entity,
			contentType: req.ContentType(),
			log:         c.log,
		}
	case !req.Method.PermitsBody():
		native.Body = nil
	default:
		native.Body = engine.EmptyBody(req.ContentType())
	}
	return native
}

// streamBody pushes an entity's chunks into the transport's sink.
type streamBody struct {
	entity      message.Entity
	contentType string
	log         *logger.Logger
}

func (b *streamBody) ContentType() string { return b.contentType }

func (b *streamBody) ContentLength() int64 {
	if b.entity.Chunked {
		return -1
	}
	return b.entity.Length
}

// WriteTo drains the entity into sink. A failing or panicking entity is
// logged and returned as a body write error so the transport aborts the
// call instead of sending a truncated body.
func (b *streamBody) WriteTo(ctx context.Context, sink engine.Sink) (err error) {
	it := b.entity.Body
	defer func() {
		if r := recover(); r != nil {
			err = b.fail("panic", fmt.Errorf("request body panicked: %v", r))
		}
		if cerr := it.Close(); cerr != nil {
			b.log.Warn("request body close failed", logger.ErrorFields("close", cerr))
		}
	}()

	for {
		chunk, ok, nerr := it.Next(ctx)
		if nerr != nil {
			return b.fail("read", nerr)
		}
		if !ok {
			return nil
		}
		if len(chunk) == 0 {
			continue
		}
		if _, werr := sink.Write(chunk); werr != nil {
			return b.fail("write", werr)
		}
	}
}

func (b *streamBody) fail(step string, err error) error {
	b.log.Warn("request body write failed", logger.ErrorFields(step, err))
	return NewBodyWriteError(err)
}
