package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmcardon/http4s/resilience"
)

func TestDispatcher_RunsTasks(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Name: "test", MaxRequests: 4})
	defer d.Shutdown(context.Background())

	var wg sync.WaitGroup
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		if err := d.Submit(func() {
			defer wg.Done()
			n.Add(1)
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	wg.Wait()
	if n.Load() != 10 {
		t.Errorf("expected 10 tasks, got %d", n.Load())
	}
}

func TestDispatcher_BoundsConcurrency(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Name: "test", MaxRequests: 1, QueueTimeout: 20 * time.Millisecond})
	defer d.Shutdown(context.Background())

	release := make(chan struct{})
	if err := d.Submit(func() { <-release }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if d.Running() != 1 {
		t.Errorf("expected 1 running task, got %d", d.Running())
	}

	err := d.Submit(func() {})
	if !errors.Is(err, resilience.ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
	close(release)
}

func TestDispatcher_ShutdownWaitsAndRejects(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Name: "test", MaxRequests: 2})

	var finished atomic.Bool
	started := make(chan struct{})
	if err := d.Submit(func() {
		close(started)
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	}); err != nil {
		t.Fatal(err)
	}
	<-started

	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !finished.Load() {
		t.Error("Shutdown must wait for running tasks")
	}
	if err := d.Submit(func() {}); !errors.Is(err, ErrDispatcherShutdown) {
		t.Errorf("expected ErrDispatcherShutdown, got %v", err)
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown must succeed, got %v", err)
	}
}

func TestDispatcher_ShutdownHonorsContext(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Name: "test", MaxRequests: 1})
	block := make(chan struct{})
	defer close(block)
	if err := d.Submit(func() { <-block }); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := d.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestDispatcher_ShutdownUnblocksQueuedSubmit(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Name: "test", MaxRequests: 1, QueueTimeout: time.Minute})
	block := make(chan struct{})
	if err := d.Submit(func() { <-block }); err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- d.Submit(func() {}) }()
	time.Sleep(10 * time.Millisecond)

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	_ = d.Shutdown(context.Background())

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrDispatcherShutdown) {
			t.Errorf("expected ErrDispatcherShutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued Submit was not released by Shutdown")
	}
}

func TestDispatcher_SubmitContextAbandonsWait(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Name: "test", MaxRequests: 1, QueueTimeout: time.Minute})
	defer d.Shutdown(context.Background())
	block := make(chan struct{})
	defer close(block)
	if err := d.Submit(func() { <-block }); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var ran atomic.Bool
	start := time.Now()
	err := d.SubmitContext(ctx, func() { ran.Store(true) })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if waited := time.Since(start); waited > 5*time.Second {
		t.Errorf("SubmitContext waited %s after ctx ended", waited)
	}
	if ran.Load() {
		t.Error("rejected task must not run")
	}
	if d.Running() != 1 {
		t.Errorf("expected the slot to stay with the first task, running=%d", d.Running())
	}
}

func TestSubmitContext_PlainExecutor(t *testing.T) {
	ex := &countingExecutor{}
	ctx, cancel := context.WithCancel(context.Background())
	if err := SubmitContext(ctx, ex, func() {}); err != nil || ex.n != 1 {
		t.Fatalf("expected task submitted, err=%v n=%d", err, ex.n)
	}
	cancel()
	if err := SubmitContext(ctx, ex, func() {}); !errors.Is(err, context.Canceled) || ex.n != 1 {
		t.Errorf("expected ended ctx to skip Submit, err=%v n=%d", err, ex.n)
	}
}

type countingExecutor struct{ n int }

func (e *countingExecutor) Submit(task func()) error {
	e.n++
	task()
	return nil
}

func TestDispatcherConfig_Defaults(t *testing.T) {
	var cfg DispatcherConfig
	cfg.ApplyDefaults()
	if cfg.MaxRequests != 64 || cfg.QueueTimeout != 30*time.Second || cfg.Name != "dispatcher" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
