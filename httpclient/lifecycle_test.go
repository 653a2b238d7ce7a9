package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/engine/enginetest"
	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/message"
)

func TestTeardown_AllSteps(t *testing.T) {
	tr := enginetest.New()
	logs := &syncBuffer{}

	Teardown(context.Background(), tr, logger.NewWriter(logs, "debug", "test"))

	if tr.Exec.Shutdowns() != 1 || tr.Pool.Evictions() != 1 || tr.ResponseCache.Closes() != 1 {
		t.Errorf("shutdowns=%d evictions=%d closes=%d, want 1 each",
			tr.Exec.Shutdowns(), tr.Pool.Evictions(), tr.ResponseCache.Closes())
	}
	for _, step := range []string{StepDispatcherShutdown, StepPoolEvict, StepCacheClose} {
		if !strings.Contains(logs.String(), step) {
			t.Errorf("expected %s in logs", step)
		}
	}
}

func TestTeardown_FailingStepsDoNotStopOthers(t *testing.T) {
	tr := enginetest.New()
	tr.Exec.ShutdownErr = errors.New("dispatcher stuck")
	tr.Pool.EvictErr = errors.New("evict failed")
	tr.ResponseCache.CloseErr = errors.New("disk full")
	logs := &syncBuffer{}

	Teardown(context.Background(), tr, logger.NewWriter(logs, "debug", "test"))

	if tr.Exec.Shutdowns() != 1 || tr.Pool.Evictions() != 1 || tr.ResponseCache.Closes() != 1 {
		t.Error("every step must run once")
	}
	out := logs.String()
	for _, msg := range []string{"dispatcher stuck", "evict failed", "disk full"} {
		if !strings.Contains(out, msg) {
			t.Errorf("expected %q logged, got %s", msg, out)
		}
	}
}

func TestTeardown_PanickingStep(t *testing.T) {
	tr := enginetest.New()
	tr.Exec.ShutdownPanic = "executor corrupted"
	logs := &syncBuffer{}

	Teardown(context.Background(), tr, logger.NewWriter(logs, "debug", "test"))

	if tr.Pool.Evictions() != 1 || tr.ResponseCache.Closes() != 1 {
		t.Error("steps after a panic must still run")
	}
	if !strings.Contains(logs.String(), "teardown step panicked") {
		t.Errorf("expected panic warning, got %s", logs.String())
	}
}

func TestTeardown_ContextBoundsDispatcherShutdown(t *testing.T) {
	d := engine.NewDispatcher(engine.DispatcherConfig{Name: "stuck", MaxRequests: 1})
	block := make(chan struct{})
	defer close(block)
	if err := d.Submit(func() { <-block }); err != nil {
		t.Fatal(err)
	}
	e, err := engine.New(engine.Config{Cache: engine.CacheConfig{Enabled: true}},
		engine.WithDispatcher(d), engine.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	logs := &syncBuffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	Teardown(ctx, e, logger.NewWriter(logs, "debug", "test"))
	if took := time.Since(start); took > 2*time.Second {
		t.Errorf("Teardown waited %s past its ctx", took)
	}

	out := logs.String()
	if !strings.Contains(out, StepDispatcherShutdown) || !strings.Contains(out, "deadline exceeded") {
		t.Errorf("expected the dispatcher timeout logged, got %s", out)
	}
	if e.ResponseCache().Len() != 0 || !strings.Contains(out, StepCacheClose) {
		t.Errorf("expected later steps to run after the timeout, got %s", out)
	}
}

func TestTeardown_NoCache(t *testing.T) {
	tr := enginetest.New()
	tr.ResponseCache = nil

	Teardown(context.Background(), tr, logger.Nop())

	if tr.Exec.Shutdowns() != 1 || tr.Pool.Evictions() != 1 {
		t.Error("dispatcher and pool must be released without a cache")
	}
}

func TestTeardown_NilTransport(t *testing.T) {
	Teardown(context.Background(), nil, nil)
}

func TestTeardown_RejectsLaterCalls(t *testing.T) {
	tr := enginetest.New()
	c, _ := newTestClient(t, tr)
	Teardown(context.Background(), tr, logger.Nop())

	_, err := c.Dispatch(context.Background(), mustRequest(t, message.MethodGet, "http://svc/"))
	if !errors.Is(err, engine.ErrDispatcherShutdown) {
		t.Fatalf("expected dispatcher shutdown, got %v", err)
	}
}

func TestResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	defer srv.Close()

	var client *Client
	err := Resource(context.Background(), Config{Name: "resource-test"}, func(c *Client) error {
		client = c
		resp, err := c.Dispatch(context.Background(), mustRequest(t, message.MethodGet, srv.URL))
		if err != nil {
			return err
		}
		defer resp.Dispose()
		if got := readBody(t, resp); got != "pong" {
			t.Errorf("body = %q", got)
		}
		return nil
	}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("Resource: %v", err)
	}

	// Released: the engine's dispatcher no longer accepts calls.
	_, err = client.Dispatch(context.Background(), mustRequest(t, message.MethodGet, srv.URL))
	if !IsTransport(err) || !errors.Is(err, engine.ErrDispatcherShutdown) {
		t.Fatalf("expected dispatcher shutdown after release, got %v", err)
	}
}

func TestResource_UseFailureStillReleases(t *testing.T) {
	boom := errors.New("use failed")
	var client *Client
	err := Resource(context.Background(), Config{}, func(c *Client) error {
		client = c
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected use error, got %v", err)
	}
	if _, err := client.Dispatch(context.Background(), mustRequest(t, message.MethodGet, "http://127.0.0.1:1/")); !errors.Is(err, engine.ErrDispatcherShutdown) {
		t.Fatalf("expected dispatcher shutdown after release, got %v", err)
	}
}

func TestResource_InvalidConfig(t *testing.T) {
	called := false
	err := Resource(context.Background(), Config{ChunkSize: -5}, func(*Client) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected start failure without use, got err=%v called=%v", err, called)
	}
}
