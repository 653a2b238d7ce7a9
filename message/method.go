package message

import "strings"

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodOptions Method = "OPTIONS"
	MethodConnect Method = "CONNECT"
	MethodTrace   Method = "TRACE"
)

// String returns the method name.
func (m Method) String() string { return string(m) }

// PermitsBody reports whether requests with this method may frame a body.
// GET and HEAD are sent without one.
func (m Method) PermitsBody() bool {
	switch Method(strings.ToUpper(string(m))) {
	case MethodGet, MethodHead:
		return false
	default:
		return true
	}
}
