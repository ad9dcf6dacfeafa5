package headers

import (
	"fmt"
	"io"
	"strings"
)

// Headers is an ordered list of response header fields. Lookups are
// case-insensitive; names are written back in the case they were set with.
type Headers struct {
	keys   []string            // canonical (lower-case) names in insertion order
	names  map[string]string   // lower-case -> name as first set
	values map[string][]string // lower-case -> values
}

func NewHeaders() *Headers {
	return &Headers{
		names:  make(map[string]string),
		values: make(map[string][]string),
	}
}

// Get returns the first value for a header
func (h *Headers) Get(key string) (string, bool) {
	values := h.values[strings.ToLower(key)]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// GetAll returns all values for a header
func (h *Headers) GetAll(key string) []string {
	return h.values[strings.ToLower(key)]
}

// Set replaces all values for a header, keeping its original position.
func (h *Headers) Set(key, value string) {
	lk := strings.ToLower(key)
	if _, ok := h.values[lk]; !ok {
		h.keys = append(h.keys, lk)
		h.names[lk] = key
	}
	h.values[lk] = []string{value}
}

// Add appends a value to a header
func (h *Headers) Add(key, value string) {
	lk := strings.ToLower(key)
	if _, ok := h.values[lk]; !ok {
		h.keys = append(h.keys, lk)
		h.names[lk] = key
	}
	h.values[lk] = append(h.values[lk], value)
}

// Del removes a header
func (h *Headers) Del(key string) {
	lk := strings.ToLower(key)
	if _, ok := h.values[lk]; !ok {
		return
	}
	delete(h.values, lk)
	delete(h.names, lk)
	for i, k := range h.keys {
		if k == lk {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Len reports the number of distinct header names.
func (h *Headers) Len() int {
	return len(h.keys)
}

// Names returns header names in insertion order.
func (h *Headers) Names() []string {
	out := make([]string, 0, len(h.keys))
	for _, k := range h.keys {
		out = append(out, h.names[k])
	}
	return out
}

// WriteTo writes every field as "Name: value\r\n" in insertion order. The
// terminating blank line is the caller's job.
func (h *Headers) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, k := range h.keys {
		for _, v := range h.values[k] {
			if err := validField(h.names[k], v); err != nil {
				return total, err
			}
			n, err := fmt.Fprintf(w, "%s: %s\r\n", h.names[k], v)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// validField refuses CR/LF inside names and values, which would let a value
// smuggle extra header lines onto the wire.
func validField(name, value string) error {
	if name == "" {
		return fmt.Errorf("malformed header: empty name")
	}
	for i := 0; i < len(name); i++ {
		if !isValidHeaderChar(name[i]) {
			return fmt.Errorf("invalid character in header name: %q", name[i])
		}
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("malformed header: line break in value of %s", name)
	}
	return nil
}

func isValidHeaderChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z') ||
		(b >= '0' && b <= '9') ||
		b == '!' || b == '#' || b == '$' || b == '%' || b == '&' ||
		b == '\'' || b == '*' || b == '+' || b == '-' || b == '.' ||
		b == '^' || b == '_' || b == '`' || b == '|' || b == '~'
}
