package httpclient

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/engine/enginetest"
	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/message"
	"github.com/jmcardon/http4s/resilience"
)

func nativeResponse(status int, proto engine.Protocol, src engine.ByteSource, headers ...[2]string) *engine.Response {
	h := engine.NewHeaders()
	for _, kv := range headers {
		h.Add(kv[0], kv[1])
	}
	return &engine.Response{StatusCode: status, Protocol: proto, Headers: h, Body: src}
}

func TestToResponse_ProtocolMapping(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	tests := []struct {
		proto engine.Protocol
		want  message.Version
	}{
		{engine.HTTP2, message.HTTP20},
		{engine.HTTP11, message.HTTP11},
		{engine.HTTP10, message.HTTP10},
		{engine.H2PriorKnowledge, message.HTTP11},
		{engine.QUIC, message.HTTP11},
		{engine.Protocol("spdy/3.1"), message.HTTP11},
	}
	for _, tc := range tests {
		t.Run(string(tc.proto), func(t *testing.T) {
			resp, err := c.toResponse(nativeResponse(200, tc.proto, enginetest.NewSource(nil, nil)))
			if err != nil {
				t.Fatalf("toResponse: %v", err)
			}
			defer resp.Dispose()
			if resp.Version != tc.want {
				t.Errorf("version = %v, want %v", resp.Version, tc.want)
			}
		})
	}
}

func TestToResponse_HeaderMultiplicity(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	resp, err := c.toResponse(nativeResponse(200, engine.HTTP11, enginetest.NewSource(nil, nil),
		[2]string{"Set-Cookie", "a=1"},
		[2]string{"Content-Type", "text/plain"},
		[2]string{"set-cookie", "b=2"},
	))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}
	defer resp.Dispose()

	want := message.Headers{
		{Name: "Set-Cookie", Value: "a=1"},
		{Name: "Set-Cookie", Value: "b=2"},
		{Name: "Content-Type", Value: "text/plain"},
	}
	if len(resp.Headers) != len(want) {
		t.Fatalf("headers = %v, want %v", resp.Headers, want)
	}
	for i := range want {
		if resp.Headers[i] != want[i] {
			t.Errorf("header %d = %v, want %v", i, resp.Headers[i], want[i])
		}
	}
}

func TestToResponse_InvalidStatusClosesSource(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	for _, code := range []int{0, 99, 600, 999} {
		src := enginetest.NewSource([]byte("ignored"), nil)
		resp, err := c.toResponse(nativeResponse(code, engine.HTTP11, src))

		if resp != nil {
			t.Errorf("status %d: expected no response", code)
		}
		if !IsTranslation(err) {
			t.Errorf("status %d: expected translation error, got %v", code, err)
		}
		var invalid *message.InvalidStatusError
		if !errors.As(err, &invalid) || invalid.Code != code {
			t.Errorf("status %d: expected InvalidStatusError in chain, got %v", code, err)
		}
		if src.Closes() != 1 {
			t.Errorf("status %d: source closed %d times, want 1", code, src.Closes())
		}
	}
}

func TestToResponse_Nil(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	if _, err := c.toResponse(nil); !IsTranslation(err) {
		t.Errorf("expected translation error, got %v", err)
	}
}

func TestToResponse_NilBodyIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	resp, err := c.toResponse(nativeResponse(204, engine.HTTP11, nil))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}
	if got := readBody(t, resp); got != "" {
		t.Errorf("body = %q, want empty", got)
	}
	if err := resp.Dispose(); err != nil {
		t.Errorf("dispose: %v", err)
	}
}

func TestBodyStream_ChunksAndEnd(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New(), WithChunkSize(4))
	src := enginetest.NewSource([]byte("hello world"), nil)
	resp, err := c.toResponse(nativeResponse(200, engine.HTTP11, src))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}
	defer resp.Dispose()

	ctx := context.Background()
	var got []string
	for {
		chunk, ok, err := resp.Body.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		if len(chunk) == 0 || len(chunk) > 4 {
			t.Errorf("chunk %q violates size bound", chunk)
		}
		got = append(got, string(chunk))
	}
	if joined := strings.Join(got, ""); joined != "hello world" {
		t.Errorf("body = %q", joined)
	}
	if _, ok, err := resp.Body.Next(ctx); ok || err != nil {
		t.Errorf("expected end to repeat, got ok=%v err=%v", ok, err)
	}
}

func TestBodyStream_MidStreamErrorIsTerminal(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	reset := errors.New("stream reset")
	src := enginetest.NewSource([]byte("abc"), reset)
	resp, err := c.toResponse(nativeResponse(200, engine.HTTP2, src))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}
	defer resp.Dispose()

	ctx := context.Background()
	chunk, ok, err := resp.Body.Next(ctx)
	if err != nil || !ok || string(chunk) != "abc" {
		t.Fatalf("first Next = %q %v %v", chunk, ok, err)
	}
	for i := 0; i < 2; i++ {
		if _, _, err := resp.Body.Next(ctx); !errors.Is(err, reset) {
			t.Errorf("Next #%d: expected %v, got %v", i, reset, err)
		}
	}
	reads := src.Reads()
	_, _, _ = resp.Body.Next(ctx)
	if src.Reads() != reads {
		t.Error("source read again after a terminal error")
	}
}

func TestDisposableResponse_DisposeTwice(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	src := enginetest.NewSource([]byte("unread"), nil)
	resp, err := c.toResponse(nativeResponse(200, engine.HTTP11, src))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}

	if err := resp.Dispose(); err != nil {
		t.Fatalf("first dispose: %v", err)
	}
	if err := resp.Dispose(); err != nil {
		t.Fatalf("second dispose: %v", err)
	}
	if src.Closes() != 1 {
		t.Errorf("source closed %d times, want 1", src.Closes())
	}
	if _, _, err := resp.Body.Next(context.Background()); !errors.Is(err, ErrBodyDisposed) {
		t.Errorf("expected ErrBodyDisposed after dispose, got %v", err)
	}
}

func TestBodyStream_CanceledWaitKeepsRead(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	pr, pw := io.Pipe()
	resp, err := c.toResponse(nativeResponse(200, engine.HTTP11, pr))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}
	defer resp.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := resp.Body.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}

	go func() {
		_, _ = pw.Write([]byte("late"))
		_ = pw.Close()
	}()

	chunk, ok, err := resp.Body.Next(context.Background())
	if err != nil || !ok || string(chunk) != "late" {
		t.Fatalf("Next after cancel = %q %v %v", chunk, ok, err)
	}
	if _, ok, err := resp.Body.Next(context.Background()); ok || err != nil {
		t.Errorf("expected end, got ok=%v err=%v", ok, err)
	}
}

func TestBodyStream_DisposeDuringRead(t *testing.T) {
	c, _ := newTestClient(t, enginetest.New())
	pr, _ := io.Pipe()
	resp, err := c.toResponse(nativeResponse(200, engine.HTTP11, pr))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, _, err := resp.Body.Next(context.Background())
		errc <- err
	}()
	time.Sleep(10 * time.Millisecond)
	if err := resp.Dispose(); err != nil {
		t.Fatalf("dispose: %v", err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, ErrBodyDisposed) {
			t.Errorf("expected ErrBodyDisposed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read did not return after dispose")
	}
}

func TestBodyStream_BusyExecutorIsNotTerminal(t *testing.T) {
	blocker := engine.NewDispatcher(engine.DispatcherConfig{Name: "one-slot", MaxRequests: 1, QueueTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = blocker.Shutdown(context.Background()) })
	c := New(enginetest.New(), blocker, WithLogger(logger.Nop()))

	pr, pw := io.Pipe()
	slow, err := c.toResponse(nativeResponse(200, engine.HTTP11, pr))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}
	defer slow.Dispose()
	fast, err := c.toResponse(nativeResponse(200, engine.HTTP11, io.NopCloser(strings.NewReader("hello"))))
	if err != nil {
		t.Fatalf("toResponse: %v", err)
	}
	defer fast.Dispose()

	// The slow body's read holds the only slot until pw is written.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := slow.Body.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	start := time.Now()
	if _, _, err := fast.Body.Next(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while the executor is busy, got %v", err)
	}
	if took := time.Since(start); took >= 200*time.Millisecond {
		t.Errorf("Next ignored its ctx and waited %s", took)
	}
	if _, _, err := fast.Body.Next(context.Background()); !errors.Is(err, resilience.ErrBulkheadTimeout) {
		t.Fatalf("expected queue timeout, got %v", err)
	}

	go func() {
		_, _ = pw.Write([]byte("x"))
	}()
	if chunk, ok, err := slow.Body.Next(context.Background()); err != nil || !ok || string(chunk) != "x" {
		t.Fatalf("slow Next = %q %v %v", chunk, ok, err)
	}

	chunk, ok, err := fast.Body.Next(context.Background())
	if err != nil || !ok || string(chunk) != "hello" {
		t.Fatalf("Next after the slot freed = %q %v %v", chunk, ok, err)
	}
	if _, ok, err := fast.Body.Next(context.Background()); ok || err != nil {
		t.Errorf("expected end, got ok=%v err=%v", ok, err)
	}
}
