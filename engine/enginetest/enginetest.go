// Package enginetest provides a scripted, in-memory engine.Transport for
// tests.
//
// Every call is recorded, outgoing bodies are drained into a buffer through
// the RequestBody's WriteTo, and replies are taken from a script in order.
// The transport's dispatcher, pool and cache count their teardown calls and
// can be told to fail.
package enginetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmcardon/http4s/engine"
)

// Reply scripts the outcome of one call.
type Reply struct {
	// Err fails the call before any response exists.
	Err error

	Status   int
	Protocol engine.Protocol
	// Headers are (name, value) pairs in order.
	Headers [][2]string
	Body    []byte
	// BodyErr is returned by the source after Body is exhausted.
	BodyErr error

	// Block holds the call until closed or the call is canceled.
	Block <-chan struct{}
}

// OK returns a 200 HTTP/1.1 reply with body.
func OK(body string, headers ...[2]string) Reply {
	return Reply{Status: 200, Protocol: engine.HTTP11, Headers: headers, Body: []byte(body)}
}

// RecordedRequest is what the transport saw for one call.
type RecordedRequest struct {
	Method  string
	URL     *url.URL
	Headers *engine.Headers
	// HasBody is false for the "no body" sentinel.
	HasBody       bool
	ContentType   string
	ContentLength int64
	Body          []byte
	WriteErr      error
}

// Transport is a scripted engine.Transport.
type Transport struct {
	Exec *Dispatcher
	Pool *Pool
	// ResponseCache is nil when the transport has no cache.
	ResponseCache *Cache

	mu       sync.Mutex
	script   []Reply
	requests []RecordedRequest
	sources  []*Source
	calls    []*Call
}

var _ engine.Transport = (*Transport)(nil)

// New returns a transport answering calls with replies in order. Once the
// script is exhausted every call gets an empty 200 reply.
func New(replies ...Reply) *Transport {
	return &Transport{
		Exec:          &Dispatcher{},
		Pool:          &Pool{},
		ResponseCache: &Cache{},
		script:        replies,
	}
}

// Script appends replies.
func (t *Transport) Script(replies ...Reply) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.script = append(t.script, replies...)
}

func (t *Transport) next() Reply {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.script) == 0 {
		return OK("")
	}
	r := t.script[0]
	t.script = t.script[1:]
	return r
}

// Requests returns the recorded requests in call order.
func (t *Transport) Requests() []RecordedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RecordedRequest, len(t.requests))
	copy(out, t.requests)
	return out
}

// Sources returns the byte sources handed out in responses.
func (t *Transport) Sources() []*Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Source, len(t.sources))
	copy(out, t.sources)
	return out
}

// Calls returns every call created by NewCall.
func (t *Transport) Calls() []*Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Call, len(t.calls))
	copy(out, t.calls)
	return out
}

func (t *Transport) NewCall(req *engine.Request) engine.Call {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Call{transport: t, req: req, ctx: ctx, cancel: cancel}
	t.mu.Lock()
	t.calls = append(t.calls, c)
	t.mu.Unlock()
	return c
}

func (t *Transport) Dispatcher() engine.Dispatcher         { return t.Exec }
func (t *Transport) ConnectionPool() engine.ConnectionPool { return t.Pool }

func (t *Transport) Cache() engine.Cache {
	if t.ResponseCache == nil {
		return nil
	}
	return t.ResponseCache
}

// Call is a scripted engine.Call.
type Call struct {
	transport *Transport
	req       *engine.Request
	ctx       context.Context
	cancel    context.CancelFunc

	canceled  atomic.Bool
	callbacks atomic.Int32
}

func (c *Call) Request() *engine.Request { return c.req }
func (c *Call) IsCanceled() bool         { return c.canceled.Load() }

func (c *Call) Cancel() {
	c.canceled.Store(true)
	c.cancel()
}

// Callbacks returns how many callback methods fired for this call.
func (c *Call) Callbacks() int { return int(c.callbacks.Load()) }

func (c *Call) Enqueue(cb engine.Callback) {
	if err := c.transport.Exec.Submit(func() { c.execute(cb) }); err != nil {
		c.fail(cb, err)
	}
}

func (c *Call) fail(cb engine.Callback, err error) {
	c.callbacks.Add(1)
	cb.OnFailure(c, err)
}

func (c *Call) execute(cb engine.Callback) {
	rec := RecordedRequest{
		Method:  c.req.Method,
		URL:     c.req.URL,
		Headers: c.req.Headers,
		HasBody: c.req.Body != nil,
	}
	if c.req.Body != nil {
		var sink bytes.Buffer
		rec.ContentType = c.req.Body.ContentType()
		rec.ContentLength = c.req.Body.ContentLength()
		rec.WriteErr = c.req.Body.WriteTo(c.ctx, &sink)
		rec.Body = sink.Bytes()
	}
	c.transport.mu.Lock()
	c.transport.requests = append(c.transport.requests, rec)
	c.transport.mu.Unlock()

	if rec.WriteErr != nil {
		c.fail(cb, fmt.Errorf("enginetest: write request body: %w", rec.WriteErr))
		return
	}

	reply := c.transport.next()
	if reply.Block != nil {
		select {
		case <-reply.Block:
		case <-c.ctx.Done():
		}
	}
	if c.IsCanceled() {
		c.fail(cb, engine.ErrCanceled)
		return
	}
	if reply.Err != nil {
		c.fail(cb, reply.Err)
		return
	}

	headers := engine.NewHeaders()
	for _, kv := range reply.Headers {
		headers.Add(kv[0], kv[1])
	}
	src := NewSource(reply.Body, reply.BodyErr)
	c.transport.mu.Lock()
	c.transport.sources = append(c.transport.sources, src)
	c.transport.mu.Unlock()

	c.callbacks.Add(1)
	cb.OnResponse(c, &engine.Response{
		StatusCode: reply.Status,
		Protocol:   reply.Protocol,
		Headers:    headers,
		Body:       src,
	})
}

// ErrSourceClosed is returned when a closed Source is read.
var ErrSourceClosed = errors.New("enginetest: read from closed source")

// Source is an in-memory engine.ByteSource that counts Close calls.
type Source struct {
	mu     sync.Mutex
	r      *bytes.Reader
	err    error
	closed bool
	closes atomic.Int32
	reads  atomic.Int32
}

// NewSource returns a source yielding body, then err (or io.EOF when nil).
func NewSource(body []byte, err error) *Source {
	return &Source{r: bytes.NewReader(body), err: err}
}

func (s *Source) Read(p []byte) (int, error) {
	s.reads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSourceClosed
	}
	n, err := s.r.Read(p)
	if err != nil && s.err != nil {
		return n, s.err
	}
	return n, err
}

func (s *Source) Close() error {
	s.closes.Add(1)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closes returns how many times Close was called.
func (s *Source) Closes() int { return int(s.closes.Load()) }

// Reads returns how many times Read was called.
func (s *Source) Reads() int { return int(s.reads.Load()) }

// Dispatcher runs each task on a new goroutine.
type Dispatcher struct {
	// ShutdownErr is returned by Shutdown.
	ShutdownErr error
	// ShutdownPanic, when non-nil, makes Shutdown panic with it.
	ShutdownPanic any

	shutdowns atomic.Int32
	closed    atomic.Bool
}

func (d *Dispatcher) Submit(task func()) error {
	if d.closed.Load() {
		return engine.ErrDispatcherShutdown
	}
	go task()
	return nil
}

func (d *Dispatcher) Shutdown(_ context.Context) error {
	d.shutdowns.Add(1)
	d.closed.Store(true)
	if d.ShutdownPanic != nil {
		panic(d.ShutdownPanic)
	}
	return d.ShutdownErr
}

// Shutdowns returns how many times Shutdown was called.
func (d *Dispatcher) Shutdowns() int { return int(d.shutdowns.Load()) }

// Pool counts evictions.
type Pool struct {
	EvictErr error
	evicts   atomic.Int32
}

func (p *Pool) EvictAll() error {
	p.evicts.Add(1)
	return p.EvictErr
}

func (p *Pool) IdleTimeout() time.Duration { return time.Minute }

// Evictions returns how many times EvictAll was called.
func (p *Pool) Evictions() int { return int(p.evicts.Load()) }

// Cache counts Close calls.
type Cache struct {
	CloseErr error
	closes   atomic.Int32
}

func (c *Cache) Close() error {
	c.closes.Add(1)
	return c.CloseErr
}

// Closes returns how many times Close was called.
func (c *Cache) Closes() int { return int(c.closes.Load()) }
