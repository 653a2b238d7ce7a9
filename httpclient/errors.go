package httpclient

import (
	"errors"
	"fmt"
)

// ErrorCode classifies client errors.
type ErrorCode int

const (
	// ErrCodeTransport indicates the transport failed before a response existed.
	ErrCodeTransport ErrorCode = iota
	// ErrCodeTranslation indicates a response the abstract model cannot represent.
	ErrCodeTranslation
	// ErrCodeBodyWrite indicates the outgoing body failed while being written.
	ErrCodeBodyWrite
	// ErrCodeTeardown indicates a transport resource failed to release.
	ErrCodeTeardown
	// ErrCodeCanceled indicates a canceled dispatch.
	ErrCodeCanceled
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTransport:
		return "transport"
	case ErrCodeTranslation:
		return "translation"
	case ErrCodeBodyWrite:
		return "body_write"
	case ErrCodeTeardown:
		return "teardown"
	case ErrCodeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ErrBodyDisposed is returned when a response body is read after disposal.
var ErrBodyDisposed = errors.New("httpclient: response body read after dispose")

// Error is a structured client error with classification.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Retryable indicates whether the operation can be retried.
	Retryable bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Kind returns the error code name.
func (e *Error) Kind() string { return e.Code.String() }

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a failure reported by the transport.
func NewTransportError(err error) *Error {
	return &Error{
		Code:      ErrCodeTransport,
		Message:   err.Error(),
		Retryable: !IsBodyWrite(err),
		Err:       err,
	}
}

// NewCanceledError wraps a cancellation reported by the transport.
func NewCanceledError(err error) *Error {
	return &Error{
		Code:    ErrCodeCanceled,
		Message: err.Error(),
		Err:     err,
	}
}

// NewTranslationError wraps a response translation failure.
func NewTranslationError(err error) *Error {
	return &Error{
		Code:    ErrCodeTranslation,
		Message: err.Error(),
		Err:     err,
	}
}

// NewBodyWriteError wraps a failure of the caller's outgoing body.
func NewBodyWriteError(err error) *Error {
	return &Error{
		Code:    ErrCodeBodyWrite,
		Message: err.Error(),
		Err:     err,
	}
}

// NewTeardownError wraps a failed teardown step.
func NewTeardownError(step string, err error) *Error {
	return &Error{
		Code:    ErrCodeTeardown,
		Message: fmt.Sprintf("%s: %v", step, err),
		Err:     err,
	}
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	return hasCode(err, ErrCodeTransport)
}

// IsTranslation checks if an error is a translation error.
func IsTranslation(err error) bool {
	return hasCode(err, ErrCodeTranslation)
}

// IsBodyWrite checks if an error is, or was caused by, a body write failure.
func IsBodyWrite(err error) bool {
	return hasCode(err, ErrCodeBodyWrite)
}

// IsCanceled checks if an error is a canceled-call error.
func IsCanceled(err error) bool {
	return hasCode(err, ErrCodeCanceled)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// hasCode walks the whole chain, since a transport error may wrap a body
// write error.
func hasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}
