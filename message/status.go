package message

import (
	"fmt"
	"net/http"
)

const (
	minStatus = 100
	maxStatus = 599
)

// Status is a validated HTTP status code.
type Status int

// InvalidStatusError reports a status code outside 100..599.
type InvalidStatusError struct {
	Code int
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status code %d: must be within %d..%d", e.Code, minStatus, maxStatus)
}

// NewStatus validates code.
func NewStatus(code int) (Status, error) {
	if code < minStatus || code > maxStatus {
		return 0, &InvalidStatusError{Code: code}
	}
	return Status(code), nil
}

// Code returns the numeric status code.
func (s Status) Code() int { return int(s) }

// Reason returns the standard reason phrase, or "" when unknown.
func (s Status) Reason() string { return http.StatusText(int(s)) }

// IsSuccess reports whether the status is 2xx.
func (s Status) IsSuccess() bool { return s >= 200 && s < 300 }

func (s Status) String() string {
	if r := s.Reason(); r != "" {
		return fmt.Sprintf("%d %s", int(s), r)
	}
	return fmt.Sprintf("%d", int(s))
}
