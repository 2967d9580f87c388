package core

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// ResponseStore maps (host, path) keys to pre-built responses. It is
// safe for concurrent use: server goroutines looking up responses
// share the store with test-setup goroutines inserting them. A single
// lock guards the map, the default response and the dynamic-response
// template; critical sections do map operations only.
//
// The store is unbounded and never evicts.
type ResponseStore struct {
	mu        sync.RWMutex
	responses map[string]*Response

	// response for lookup misses, if set
	defaultResponse *Response

	// template for dynamically generated responses, if enabled
	generateBytes *Response
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{responses: make(map[string]*Response)}
}

// Insert publishes a response under (host, path), overwriting any
// previous entry for the same key. The stored entry is a copy owning
// all of its storage.
func (s *ResponseStore) Insert(host, path string, res Response) {
	entry := res.clone()
	s.mu.Lock()
	s.responses[Key(host, path)] = &entry
	s.mu.Unlock()
}

// AddSimpleResponse inserts a response carrying only a status code and
// a content-length header for the given body.
func (s *ResponseStore) AddSimpleResponse(host, path string, statusCode int, body []byte) {
	var headers HeaderBlock
	headers.Add(StatusHeader, strconv.Itoa(statusCode))
	headers.Add("content-length", strconv.Itoa(len(body)))
	s.Insert(host, path, Response{Headers: headers, Body: body})
}

// Lookup returns a snapshot of the response stored for (host, path).
// On a miss it falls back to the default response if one is set, then,
// when dynamic mode is enabled and the path is a decimal numeral, to a
// freshly synthesized response of that many bytes. Synthesized
// responses are never added to the map.
//
// The snapshot shares header and body storage with the published
// entry; both are immutable once published.
func (s *ResponseStore) Lookup(host, path string) (Response, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.responses[Key(host, path)]; ok {
		return *entry, true
	}
	if s.defaultResponse != nil {
		return *s.defaultResponse, true
	}
	if s.generateBytes != nil {
		if n, err := strconv.Atoi(strings.TrimPrefix(path, "/")); err == nil && n >= 0 {
			res := *s.generateBytes
			res.Headers = s.generateBytes.Headers.Clone()
			res.Headers.Set("content-length", strconv.Itoa(n))
			res.NumBytes = n
			return res, true
		}
	}
	return Response{}, false
}

// Contains reports whether an entry is published for (host, path).
// Unlike Lookup it never falls back to the default or dynamic
// responses.
func (s *ResponseStore) Contains(host, path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.responses[Key(host, path)]
	return ok
}

// SetDelay assigns a delivery delay to the entry for (host, path). It
// reports whether a matching entry existed.
func (s *ResponseStore) SetDelay(host, path string, delay time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.responses[Key(host, path)]; ok {
		entry.Delay = delay
		return true
	}
	return false
}

// SetDefault replaces the response served on lookup misses.
func (s *ResponseStore) SetDefault(res Response) {
	entry := res.clone()
	s.mu.Lock()
	s.defaultResponse = &entry
	s.mu.Unlock()
}

// EnableDynamicMode makes lookups whose path is a decimal numeral
// synthesize a status 200 response of that many bytes. Once enabled it
// stays enabled for the lifetime of the store.
func (s *ResponseStore) EnableDynamicMode() {
	var headers HeaderBlock
	headers.Add(StatusHeader, "200")
	entry := Response{Headers: headers, Type: GenerateBytes}
	s.mu.Lock()
	s.generateBytes = &entry
	s.mu.Unlock()
}

// Len returns the number of published entries. Default and synthesized
// responses do not count.
func (s *ResponseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.responses)
}
