package httpclient

import (
	"context"
	"fmt"

	"github.com/jmcardon/http4s/component"
	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/logger"
)

// Teardown step names.
const (
	StepDispatcherShutdown = "dispatcher_shutdown"
	StepPoolEvict          = "pool_evict"
	StepCacheClose         = "cache_close"
)

type teardownStep struct {
	name string
	run  func() error
}

// Teardown releases transport's dispatcher, connection pool and cache, in
// that order. Every step runs even when an earlier one fails or panics;
// failures are logged and never returned.
//
// The steps run on the calling goroutine. Only the dispatcher shutdown
// waits, and ctx bounds it.
func Teardown(ctx context.Context, transport engine.Transport, log *logger.Logger) {
	if transport == nil {
		return
	}
	if log == nil {
		log = logger.WithComponent("httpclient")
	}

	steps := []teardownStep{
		{StepDispatcherShutdown, func() error {
			if d := transport.Dispatcher(); d != nil {
				return d.Shutdown(ctx)
			}
			return nil
		}},
		{StepPoolEvict, func() error {
			if p := transport.ConnectionPool(); p != nil {
				return p.EvictAll()
			}
			return nil
		}},
		{StepCacheClose, func() error {
			if c := transport.Cache(); c != nil {
				return c.Close()
			}
			return nil
		}},
	}
	for _, step := range steps {
		runTeardownStep(step, log)
	}
}

func runTeardownStep(step teardownStep, log *logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			err := NewTeardownError(step.name, fmt.Errorf("panic: %v", r))
			log.Warn("teardown step panicked", logger.ErrorFields(step.name, err))
		}
	}()

	if err := step.run(); err != nil {
		log.Warn("teardown step failed", logger.ErrorFields(step.name, NewTeardownError(step.name, err)))
		return
	}
	log.Debug("teardown step completed", logger.Fields(logger.FieldStep, step.name))
}

// Resource builds a Component from cfg, hands its client to fn and tears
// everything down when fn returns, whatever the outcome.
func Resource(ctx context.Context, cfg Config, fn func(*Client) error, opts ...Option) error {
	comp := NewComponent(cfg, opts...)
	return component.Run(ctx, comp, func(context.Context) error {
		return fn(comp.Client())
	})
}
