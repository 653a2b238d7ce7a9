package engine

import (
	"net/http"
	"sort"
	"strings"
)

// Headers is an ordered header multimap. Names are matched
// case-insensitively and keep the spelling and order in which they were
// first added; values keep insertion order per name.
type Headers struct {
	names  []string
	values map[string][]string
}

// NewHeaders returns an empty header set.
func NewHeaders() *Headers {
	return &Headers{values: make(map[string][]string)}
}

// Add appends value under name.
func (h *Headers) Add(name, value string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	key := strings.ToLower(name)
	if _, ok := h.values[key]; !ok {
		h.names = append(h.names, name)
	}
	h.values[key] = append(h.values[key], value)
}

// Get returns the first value for name.
func (h *Headers) Get(name string) string {
	if vs := h.Values(name); len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Names returns the distinct header names in first-seen order.
func (h *Headers) Names() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Values returns every value for name in insertion order.
func (h *Headers) Values(name string) []string {
	if h == nil {
		return nil
	}
	return h.values[strings.ToLower(name)]
}

// Len returns the number of (name, value) pairs.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	n := 0
	for _, vs := range h.values {
		n += len(vs)
	}
	return n
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	out := NewHeaders()
	for _, name := range h.Names() {
		for _, v := range h.Values(name) {
			out.Add(name, v)
		}
	}
	return out
}

// HeadersFromHTTP converts an http.Header. Names are sorted since
// http.Header does not keep order; per-name value order is kept.
func HeadersFromHTTP(src http.Header) *Headers {
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)

	h := NewHeaders()
	for _, name := range names {
		for _, v := range src[name] {
			h.Add(name, v)
		}
	}
	return h
}

// ToHTTP converts to an http.Header.
func (h *Headers) ToHTTP() http.Header {
	out := make(http.Header, len(h.Names()))
	for _, name := range h.Names() {
		for _, v := range h.Values(name) {
			out.Add(name, v)
		}
	}
	return out
}
