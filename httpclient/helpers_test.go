package httpclient

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/jmcardon/http4s/engine"
	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/message"
)

// syncBuffer is a log sink safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newBlocker(t *testing.T) *engine.GoroutineDispatcher {
	t.Helper()
	d := engine.NewDispatcher(engine.DispatcherConfig{Name: "test-blocking", MaxRequests: 8})
	t.Cleanup(func() { _ = d.Shutdown(context.Background()) })
	return d
}

func newTestClient(t *testing.T, tr engine.Transport, opts ...Option) (*Client, *syncBuffer) {
	t.Helper()
	logs := &syncBuffer{}
	opts = append([]Option{WithLogger(logger.NewWriter(logs, "debug", "test"))}, opts...)
	return New(tr, newBlocker(t), opts...), logs
}

func mustRequest(t *testing.T, method message.Method, rawURL string, headers ...message.Header) *message.Request {
	t.Helper()
	req, err := message.NewRequest(method, rawURL, headers...)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func readBody(t *testing.T, resp *message.DisposableResponse) string {
	t.Helper()
	b, err := message.ReadAll(context.Background(), resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

