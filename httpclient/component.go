package httpclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmcardon/http4s/component"
	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/message"
	"github.com/jmcardon/http4s/observability"
	"github.com/jmcardon/http4s/provider"
)

// Dispatcher is the provider view of a client.
type Dispatcher = provider.RequestResponse[*message.Request, *message.DisposableResponse]

// Component owns a default engine, the blocking executor and a Client.
type Component struct {
	config Config
	opts   []Option
	log    *logger.Logger

	mu        sync.RWMutex
	transport *engine.Engine
	blocker   *engine.GoroutineDispatcher
	client    *Client
	provider  Dispatcher
	telemetry *observability.Providers
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a client component. Nothing is built until Start.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{
		config: cfg,
		opts:   opts,
		log:    logger.WithComponent("httpclient").WithFields(logger.Fields("client", cfg.Name)),
	}
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.config.Name
}

// Start builds the engine, the blocking executor, the client and its
// middleware chain.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}

	if err := c.config.Validate(); err != nil {
		return err
	}

	telemetry, err := observability.Init(ctx, c.config.Telemetry, c.config.Tracing, c.config.Metrics)
	if err != nil {
		return fmt.Errorf("httpclient: init telemetry: %w", err)
	}
	transport, err := engine.New(c.config.Engine, engine.WithLogger(logger.WithComponent("engine")))
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return err
	}
	blocker := engine.NewDispatcher(c.config.Blocking)

	opts := []Option{
		WithName(c.config.Name),
		WithChunkSize(c.config.ChunkSize),
		WithLogger(c.log),
	}
	var metrics *observability.Metrics
	if c.config.Metrics {
		metrics, err = observability.NewMetrics(observability.Meter(c.config.Name))
		if err != nil {
			Teardown(ctx, transport, c.log)
			_ = blocker.Shutdown(ctx)
			_ = telemetry.Shutdown(ctx)
			return fmt.Errorf("httpclient: create metrics: %w", err)
		}
		opts = append(opts, WithMetrics(metrics))
	}
	client := New(transport, blocker, append(opts, c.opts...)...)

	var mws []provider.Middleware[*message.Request, *message.DisposableResponse]
	if c.config.Logging {
		mws = append(mws, provider.WithLogging[*message.Request, *message.DisposableResponse](c.log))
	}
	if c.config.Metrics {
		mws = append(mws, provider.WithMetrics[*message.Request, *message.DisposableResponse](metrics))
	}
	if c.config.Tracing {
		mws = append(mws, provider.WithTracing[*message.Request, *message.DisposableResponse](c.config.Name))
	}

	c.transport = transport
	c.blocker = blocker
	c.client = client
	c.provider = provider.Chain(mws...)(client)
	c.telemetry = telemetry

	c.log.Info("http client started", logger.Fields("details", c.describe()))
	return nil
}

// Stop tears down the transport, the blocking executor and any telemetry
// exporters Start installed. Failures are logged; Stop always returns nil.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}

	Teardown(ctx, c.transport, c.log)
	if err := c.blocker.Shutdown(ctx); err != nil {
		c.log.Warn("blocking executor shutdown failed", logger.ErrorFields("blocking_shutdown", err))
	}
	if err := c.telemetry.Shutdown(ctx); err != nil {
		c.log.Warn("telemetry shutdown failed", logger.ErrorFields("telemetry_shutdown", err))
	}

	c.transport, c.blocker, c.client, c.provider, c.telemetry = nil, nil, nil, nil, nil
	c.log.Info("http client stopped")
	return nil
}

// Health reports healthy while the component is started.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.client == nil || !c.client.IsAvailable(ctx) {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	}
	return h
}

// Describe returns a summary of the component configuration.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "httpclient",
		Details: c.describe(),
	}
}

func (c *Component) describe() string {
	e := c.config.Engine
	return fmt.Sprintf("h2=%t max_requests=%d cache=%t chunk_size=%d",
		!e.DisableHTTP2, e.Dispatcher.MaxRequests, e.Cache.Enabled, c.config.ChunkSize)
}

// Client returns the client. Nil before Start and after Stop.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Provider returns the client wrapped in the middlewares Config selects.
// Nil before Start and after Stop.
func (c *Component) Provider() Dispatcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.provider
}

// Engine returns the default engine. Nil before Start and after Stop.
func (c *Component) Engine() *engine.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport
}
