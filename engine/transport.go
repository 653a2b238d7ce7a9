package engine

import (
	"context"
	"time"
)

// Executor runs tasks on goroutines it owns.
type Executor interface {
	Submit(task func()) error
}

// ContextExecutor is an Executor whose wait for a free slot can be
// abandoned.
type ContextExecutor interface {
	Executor
	SubmitContext(ctx context.Context, task func()) error
}

// SubmitContext submits task to ex. When ex is a ContextExecutor the wait
// for a slot ends with ctx; otherwise only an already-ended ctx is checked.
func SubmitContext(ctx context.Context, ex Executor, task func()) error {
	if ce, ok := ex.(ContextExecutor); ok {
		return ce.SubmitContext(ctx, task)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ex.Submit(task)
}

// Dispatcher is the executor a transport runs calls on.
type Dispatcher interface {
	Executor
	// Shutdown stops accepting tasks and waits for running ones or ctx.
	Shutdown(ctx context.Context) error
}

// ConnectionPool holds reusable connections.
type ConnectionPool interface {
	// EvictAll closes every idle connection.
	EvictAll() error
	IdleTimeout() time.Duration
}

// Cache is a transport-side response cache.
type Cache interface {
	Close() error
}

// Transport is the callback-driven HTTP engine.
type Transport interface {
	NewCall(req *Request) Call
	Dispatcher() Dispatcher
	ConnectionPool() ConnectionPool
	// Cache returns nil when no cache is configured.
	Cache() Cache
}
