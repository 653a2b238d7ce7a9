package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/resilience"
)

// ErrDispatcherShutdown is returned by Submit after Shutdown.
var ErrDispatcherShutdown = errors.New("engine: dispatcher shut down")

// DispatcherConfig configures a goroutine dispatcher.
type DispatcherConfig struct {
	// Name identifies the dispatcher in logs.
	Name string `yaml:"name" mapstructure:"name"`
	// MaxRequests bounds the number of tasks running at once.
	MaxRequests int `yaml:"max_requests" mapstructure:"max_requests" validate:"gte=1"`
	// QueueTimeout is how long Submit waits for a free slot. 0 rejects
	// immediately when all slots are busy.
	QueueTimeout time.Duration `yaml:"queue_timeout" mapstructure:"queue_timeout" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields.
func (c *DispatcherConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "dispatcher"
	}
	if c.MaxRequests <= 0 {
		c.MaxRequests = 64
	}
	if c.QueueTimeout == 0 {
		c.QueueTimeout = 30 * time.Second
	}
}

// GoroutineDispatcher runs each task on its own goroutine, at most
// MaxRequests at a time.
type GoroutineDispatcher struct {
	bulkhead *resilience.Bulkhead
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var (
	_ Dispatcher      = (*GoroutineDispatcher)(nil)
	_ ContextExecutor = (*GoroutineDispatcher)(nil)
)

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *GoroutineDispatcher {
	cfg.ApplyDefaults()
	log := logger.WithComponent("engine").WithFields(logger.Fields("dispatcher", cfg.Name))

	ctx, cancel := context.WithCancel(context.Background())
	return &GoroutineDispatcher{
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          cfg.Name,
			MaxConcurrent: cfg.MaxRequests,
			MaxWait:       cfg.QueueTimeout,
			OnReject: func(name string, err error) {
				log.Debug("task rejected", logger.Fields(logger.FieldError, err.Error()))
			},
		}),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit runs task on a new goroutine once a slot is free.
func (d *GoroutineDispatcher) Submit(task func()) error {
	return d.SubmitContext(context.Background(), task)
}

// SubmitContext is Submit with a wait for a slot that ends with ctx. A
// task that was not admitted never runs.
func (d *GoroutineDispatcher) SubmitContext(ctx context.Context, task func()) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherShutdown
	}

	wait, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(d.ctx, cancel)
	defer stop()

	d.wg.Add(1)
	err := d.bulkhead.Go(wait, func() {
		defer d.wg.Done()
		task()
	})
	if err != nil {
		d.wg.Done()
		if d.ctx.Err() != nil {
			return ErrDispatcherShutdown
		}
		return err
	}
	return nil
}

// Shutdown rejects new tasks and waits for running ones to return or for
// ctx to end. It is safe to call more than once.
func (d *GoroutineDispatcher) Shutdown(ctx context.Context) error {
	d.cancel()

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running returns the number of tasks in flight.
func (d *GoroutineDispatcher) Running() int {
	return d.bulkhead.InUse()
}
