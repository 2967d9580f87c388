package core

import (
	"strconv"
	"strings"
)

// StatusHeader is the reserved pseudo-header carrying the numeric
// status code of a response. Pseudo-header names start with a colon,
// which cannot appear in a real header name.
const StatusHeader = ":status"

// A Field is one name/value pair in a header block.
type Field struct {
	Name  string
	Value string
}

// HeaderBlock is an ordered list of header fields. Unlike http.Header
// it preserves insertion order, which matters when replaying captured
// responses faithfully. Names are stored lowercased.
type HeaderBlock []Field

// Add appends a field to the block.
func (h *HeaderBlock) Add(name, value string) {
	*h = append(*h, Field{Name: strings.ToLower(name), Value: value})
}

// Set replaces the value of the first field with the given name, or
// appends a new field if none exists.
func (h *HeaderBlock) Set(name, value string) {
	name = strings.ToLower(name)
	for i := range *h {
		if (*h)[i].Name == name {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, Field{Name: name, Value: value})
}

// Get returns the value of the first field with the given name.
func (h HeaderBlock) Get(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range h {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns all values for the given name, in insertion order.
func (h HeaderBlock) Values(name string) []string {
	name = strings.ToLower(name)
	var values []string
	for _, f := range h {
		if f.Name == name {
			values = append(values, f.Value)
		}
	}
	return values
}

// Status returns the numeric status code stored under the status
// pseudo-header. Trailing reason phrases ("200 OK") are tolerated.
func (h HeaderBlock) Status() (int, bool) {
	value, ok := h.Get(StatusHeader)
	if !ok {
		return 0, false
	}
	if i := strings.IndexByte(value, ' '); i != -1 {
		value = value[:i]
	}
	code, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return code, true
}

// Clone returns a copy sharing no field storage with the receiver.
func (h HeaderBlock) Clone() HeaderBlock {
	if h == nil {
		return nil
	}
	return append(HeaderBlock(nil), h...)
}
