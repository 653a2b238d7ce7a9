package httpclient

import (
	"github.com/jmcardon/http4s/logger"
	"github.com/jmcardon/http4s/observability"
)

// Option configures a Client.
type Option func(*Client)

// WithName sets the client name used in logs and metrics.
func WithName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.name = name
		}
	}
}

// WithChunkSize sets the largest chunk a response body yields.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records active and completed dispatches on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}
