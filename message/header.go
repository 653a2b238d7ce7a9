package message

import "strings"

// Header is a single (name, value) pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list. Duplicate names are kept as separate
// entries.
type Headers []Header

// Get returns the first value for name, compared case-insensitively.
func (h Headers) Get(name string) string {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value
		}
	}
	return ""
}

// Values returns every value for name in order.
func (h Headers) Values(name string) []string {
	var out []string
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			out = append(out, hdr.Value)
		}
	}
	return out
}

// Has reports whether any entry has the given name.
func (h Headers) Has(name string) bool {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return true
		}
	}
	return false
}

// Add returns h with (name, value) appended.
func (h Headers) Add(name, value string) Headers {
	return append(h, Header{Name: name, Value: value})
}
