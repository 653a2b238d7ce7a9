package httpclient

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/message"
	"github.com/jmcardon/http4s/observability"
	"github.com/jmcardon/http4s/provider"
)

// Client dispatches abstract requests through an engine.Transport.
type Client struct {
	transport engine.Transport
	blocker   engine.Executor
	name      string
	chunkSize int
	log       *logger.Logger
	metrics   *observability.Metrics
}

// compile-time assertions
var _ provider.RequestResponse[*message.Request, *message.DisposableResponse] = (*Client)(nil)

// New creates a client over transport. Response bodies are read on blocker.
func New(transport engine.Transport, blocker engine.Executor, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		blocker:   blocker,
		name:      defaultName,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.WithComponent("httpclient")
	}
	return c
}

// Name returns the client name.
func (c *Client) Name() string { return c.name }

// IsAvailable reports whether the transport still accepts calls.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return ctx.Err() == nil && c.transport != nil
}

// Execute is Dispatch, for use as a provider.RequestResponse.
func (c *Client) Execute(ctx context.Context, req *message.Request) (*message.DisposableResponse, error) {
	return c.Dispatch(ctx, req)
}

// Dispatch sends req and waits for the response headers. The caller must
// Dispose the returned response. When ctx ends first the call is canceled
// and ctx.Err() is returned.
func (c *Client) Dispatch(ctx context.Context, req *message.Request) (*message.DisposableResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil || req.URI == nil {
		return nil, NewTranslationError(errMissingURI)
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, c.name)
	observability.SetSpanAttribute(ctx, observability.AttrHTTPMethod, string(req.Method))
	observability.SetSpanAttribute(ctx, observability.AttrHTTPURL, req.URI.String())

	start := time.Now()
	if c.metrics != nil {
		c.metrics.RecordDispatchStart(ctx)
	}

	call := c.transport.NewCall(c.toNativeRequest(req))
	resp, err := c.await(ctx, call)

	labels := observability.DispatchLabels{Client: c.name, Method: string(req.Method), Status: "error"}
	if err != nil {
		observability.SetSpanError(ctx, err)
		c.log.Debug("dispatch failed", logger.MergeWithDuration(logger.Fields(
			logger.FieldMethod, string(req.Method),
			logger.FieldURL, req.URI.String(),
			logger.FieldError, err.Error(),
		), time.Since(start)))
	} else {
		labels.Status = strconv.Itoa(resp.Status.Code())
		labels.Protocol = resp.Version.String()
		observability.SetSpanAttribute(ctx, observability.AttrHTTPStatus, resp.Status.Code())
		observability.SetSpanAttribute(ctx, observability.AttrHTTPProtocol, labels.Protocol)
		c.log.Debug("dispatch completed", logger.MergeWithDuration(logger.Fields(
			logger.FieldMethod, string(req.Method),
			logger.FieldURL, req.URI.String(),
			logger.FieldStatus, resp.Status.Code(),
			logger.FieldProtocol, labels.Protocol,
		), time.Since(start)))
	}
	if c.metrics != nil {
		c.metrics.RecordDispatchEnd(ctx, labels, time.Since(start))
	}
	return resp, err
}

var errMissingURI = errors.New("request has no URI")

type outcome struct {
	resp *engine.Response
	err  error
}

// await enqueues call and blocks until its callback fires or ctx ends.
func (c *Client) await(ctx context.Context, call engine.Call) (*message.DisposableResponse, error) {
	done := make(chan outcome, 1)
	var fired atomic.Bool
	deliver := func(o outcome) {
		if fired.CompareAndSwap(false, true) {
			done <- o
			return
		}
		// The transport fired twice; keep the first result.
		if o.resp != nil && o.resp.Body != nil {
			_ = o.resp.Body.Close()
		}
	}
	call.Enqueue(engine.CallbackFuncs{
		Failure:  func(_ engine.Call, err error) { deliver(outcome{err: err}) },
		Response: func(_ engine.Call, resp *engine.Response) { deliver(outcome{resp: resp}) },
	})

	select {
	case o := <-done:
		if o.err != nil {
			if errors.Is(o.err, engine.ErrCanceled) {
				return nil, NewCanceledError(o.err)
			}
			return nil, NewTransportError(o.err)
		}
		return c.toResponse(o.resp)
	case <-ctx.Done():
		call.Cancel()
		go discardLate(done)
		return nil, ctx.Err()
	}
}

// discardLate releases a response that arrives after the caller gave up.
func discardLate(done <-chan outcome) {
	o := <-done
	if o.resp != nil && o.resp.Body != nil {
		_ = o.resp.Body.Close()
	}
}
