package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/jmcardon/http4s/logger"
)

// Engine is the default Transport, built on net/http.
type Engine struct {
	cfg        Config
	client     *http.Client
	transport  *http.Transport
	dispatcher Dispatcher
	pool       *connectionPool
	cache      *ResponseCache
	log        *logger.Logger
}

var _ Transport = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithDispatcher replaces the dispatcher built from Config.Dispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// New creates an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.WithComponent("engine")
	}

	transport, err := newHTTPTransport(cfg)
	if err != nil {
		return nil, err
	}
	e.transport = transport
	e.pool = &connectionPool{transport: transport}
	e.client = &http.Client{Transport: transport}
	if cfg.DisableRedirects {
		e.client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.Cache.Enabled {
		cache, err := NewResponseCache(cfg.Cache, e.log)
		if err != nil {
			return nil, fmt.Errorf("engine: create cache: %w", err)
		}
		e.cache = cache
	}

	if e.dispatcher == nil {
		e.dispatcher = NewDispatcher(cfg.Dispatcher)
	}
	return e, nil
}

func newHTTPTransport(cfg Config) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second}
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ExpectContinueTimeout: time.Second,
	}

	var nextProtos []string
	if cfg.DisableHTTP2 {
		nextProtos = []string{"http/1.1"}
	}
	tlsCfg, err := cfg.TLS.Build(nextProtos...)
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		t.TLSClientConfig = tlsCfg
	}

	if !cfg.DisableHTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("engine: configure http2: %w", err)
		}
	}
	return t, nil
}

// NewCall prepares req for execution.
func (e *Engine) NewCall(req *Request) Call {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if e.cfg.CallTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), e.cfg.CallTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	id := uuid.NewString()
	return &call{
		id:     id,
		engine: e,
		req:    req,
		ctx:    ctx,
		cancel: cancel,
		log:    e.log.WithFields(logger.Fields(logger.FieldCallID, id)),
	}
}

// Dispatcher returns the executor calls run on.
func (e *Engine) Dispatcher() Dispatcher { return e.dispatcher }

// ConnectionPool returns the idle connection pool.
func (e *Engine) ConnectionPool() ConnectionPool { return e.pool }

// Cache returns the response cache, or nil when disabled.
func (e *Engine) Cache() Cache {
	if e.cache == nil {
		return nil
	}
	return e.cache
}

// ResponseCache returns the concrete cache, or nil when disabled.
func (e *Engine) ResponseCache() *ResponseCache { return e.cache }

type call struct {
	id     string
	engine *Engine
	req    *Request
	log    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	canceled atomic.Bool
	enqueued atomic.Bool
}

func (c *call) Request() *Request { return c.req }

func (c *call) IsCanceled() bool { return c.canceled.Load() }

func (c *call) Cancel() {
	c.canceled.Store(true)
	c.cancel()
}

func (c *call) Enqueue(cb Callback) {
	if !c.enqueued.CompareAndSwap(false, true) {
		cb.OnFailure(c, errors.New("engine: call already enqueued"))
		return
	}
	go c.admit(cb)
}

// admit waits for a dispatcher slot off the caller's goroutine. Cancel and
// the call timeout end the wait.
func (c *call) admit(cb Callback) {
	err := SubmitContext(c.ctx, c.engine.dispatcher, func() { c.execute(cb) })
	if err == nil {
		return
	}
	c.cancel()
	if c.IsCanceled() {
		err = ErrCanceled
	}
	c.log.Debug("call not admitted", logger.Fields(logger.FieldError, err.Error()))
	cb.OnFailure(c, err)
}

func (c *call) execute(cb Callback) {
	if c.IsCanceled() {
		cb.OnFailure(c, ErrCanceled)
		return
	}

	start := time.Now()
	resp, err := c.engine.roundTrip(c)
	if err != nil {
		c.cancel()
		if c.IsCanceled() {
			err = ErrCanceled
		}
		c.log.Debug("call failed", logger.MergeWithDuration(logger.Fields(logger.FieldError, err.Error()), time.Since(start)))
		cb.OnFailure(c, err)
		return
	}
	if c.IsCanceled() {
		_ = resp.Body.Close()
		cb.OnFailure(c, ErrCanceled)
		return
	}

	c.log.Debug("call completed", logger.MergeWithDuration(logger.Fields(
		logger.FieldStatus, resp.StatusCode,
		logger.FieldProtocol, string(resp.Protocol),
	), time.Since(start)))
	cb.OnResponse(c, resp)
}

func (e *Engine) roundTrip(c *call) (*Response, error) {
	req := c.req
	if req.Headers == nil {
		req.Headers = NewHeaders()
	}

	if e.cache != nil {
		if resp, ok := e.cache.lookup(req); ok {
			c.log.Debug("cache hit", logger.Fields(logger.FieldURL, req.URL.String()))
			resp.Body = &callBody{ReadCloser: resp.Body, release: c.cancel}
			return resp, nil
		}
	}

	httpReq, err := e.newHTTPRequest(c)
	if err != nil {
		return nil, err
	}

	hr, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		StatusCode: hr.StatusCode,
		Protocol:   ProtocolFromVersion(hr.ProtoMajor, hr.ProtoMinor),
		Headers:    HeadersFromHTTP(hr.Header),
		Body:       &callBody{ReadCloser: hr.Body, release: c.cancel},
	}
	if e.cache != nil && e.cache.cacheable(req, resp, hr.ContentLength) {
		resp = e.cache.wrap(req, resp)
	}
	return resp, nil
}

func (e *Engine) newHTTPRequest(c *call) (*http.Request, error) {
	req := c.req
	body, length, err := e.requestBody(c)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(c.ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.ContentLength = length
	httpReq.Header = req.Headers.ToHTTP()
	if host := req.Headers.Get("Host"); host != "" {
		httpReq.Host = host
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" && req.Body.ContentType() != "" {
		httpReq.Header.Set("Content-Type", req.Body.ContentType())
	}
	if e.cfg.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", e.cfg.UserAgent)
	}
	return httpReq, nil
}

// requestBody returns the reader net/http sends. Non-empty bodies are
// written by RequestBody.WriteTo on a separate goroutine through a pipe.
func (e *Engine) requestBody(c *call) (io.ReadCloser, int64, error) {
	rb := c.req.Body
	if rb == nil {
		return nil, 0, nil
	}

	length := rb.ContentLength()
	if length == 0 {
		// net/http treats a non-nil body with length 0 as unknown length.
		if err := rb.WriteTo(c.ctx, &declaredSink{w: io.Discard}); err != nil {
			return nil, 0, err
		}
		return http.NoBody, 0, nil
	}

	pr, pw := io.Pipe()
	var sink Sink = pw
	if length > 0 {
		sink = &declaredSink{w: pw, left: length}
	}
	go func() {
		pw.CloseWithError(rb.WriteTo(c.ctx, sink))
	}()
	return pr, length, nil
}

// ErrBodyTooLong is returned when a body writes more than its declared
// ContentLength.
var ErrBodyTooLong = errors.New("engine: request body exceeds declared length")

// declaredSink rejects writes past the declared body length.
type declaredSink struct {
	w    io.Writer
	left int64
}

func (s *declaredSink) Write(p []byte) (int, error) {
	if int64(len(p)) > s.left {
		return 0, ErrBodyTooLong
	}
	n, err := s.w.Write(p)
	s.left -= int64(n)
	return n, err
}

// callBody ends the call when the body is closed.
type callBody struct {
	io.ReadCloser
	release context.CancelFunc
}

func (b *callBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}
