package engine

import "io"

// ByteSource is a push-style incoming body. The receiver must close it.
type ByteSource = io.ReadCloser

// Response is a native response. StatusCode is passed through unvalidated.
type Response struct {
	StatusCode int
	Protocol   Protocol
	Headers    *Headers
	Body       ByteSource
}
