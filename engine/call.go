package engine

import "errors"

// ErrCanceled is delivered to OnFailure when a call is canceled before it
// completes.
var ErrCanceled = errors.New("engine: call canceled")

// Callback receives the single outcome of an enqueued Call.
type Callback interface {
	OnFailure(call Call, err error)
	// OnResponse takes ownership of resp.Body.
	OnResponse(call Call, resp *Response)
}

// CallbackFuncs adapts a pair of functions to Callback.
type CallbackFuncs struct {
	Failure  func(call Call, err error)
	Response func(call Call, resp *Response)
}

func (f CallbackFuncs) OnFailure(call Call, err error) {
	if f.Failure != nil {
		f.Failure(call, err)
	}
}

func (f CallbackFuncs) OnResponse(call Call, resp *Response) {
	if f.Response != nil {
		f.Response(call, resp)
		return
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

// Call is a single prepared request. It can be enqueued once.
type Call interface {
	Request() *Request
	// Enqueue schedules the call. Exactly one callback method fires, once.
	Enqueue(cb Callback)
	// Cancel aborts the call. A call that has not completed yet fails with
	// ErrCanceled.
	Cancel()
	IsCanceled() bool
}
