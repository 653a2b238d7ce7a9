package engine

import (
	"net/http"
	"time"
)

// connectionPool exposes the idle connections of an *http.Transport.
type connectionPool struct {
	transport *http.Transport
}

var _ ConnectionPool = (*connectionPool)(nil)

// EvictAll closes every idle connection. Connections in use are closed when
// their response body is.
func (p *connectionPool) EvictAll() error {
	p.transport.CloseIdleConnections()
	return nil
}

func (p *connectionPool) IdleTimeout() time.Duration {
	return p.transport.IdleConnTimeout
}
