package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/replay-cache/replay-cache/core"
)

// responseStream adapts one http.ResponseWriter to the backend's
// delivery surface. done is closed once the stream has been answered
// or the connection dropped.
type responseStream struct {
	w    http.ResponseWriter
	log  zerolog.Logger
	done chan struct{}
}

func newResponseStream(w http.ResponseWriter, log zerolog.Logger) *responseStream {
	return &responseStream{w: w, log: log, done: make(chan struct{})}
}

func (s *responseStream) OnEarlyHints(headers core.HeaderBlock) {
	for _, f := range headers {
		s.w.Header().Add(http.CanonicalHeaderKey(f.Name), f.Value)
	}
	s.w.WriteHeader(http.StatusEarlyHints)
}

func (s *responseStream) OnResponse(headers core.HeaderBlock, body []byte, trailers core.HeaderBlock) {
	defer close(s.done)

	status := http.StatusOK
	for _, f := range headers {
		if f.Name == core.StatusHeader {
			if code, ok := headers.Status(); ok {
				status = code
			}
			continue
		}
		// other pseudo-headers have no HTTP/1 representation
		if strings.HasPrefix(f.Name, ":") {
			continue
		}
		s.w.Header().Add(http.CanonicalHeaderKey(f.Name), f.Value)
	}
	if len(trailers) > 0 {
		// trailers require a chunked body
		s.w.Header().Del("Content-Length")
	}

	s.w.WriteHeader(status)
	if _, err := s.w.Write(body); err != nil {
		s.log.Error().Err(err).Msg("Could not write response body to client")
	}
	for _, f := range trailers {
		s.w.Header().Set(http.TrailerPrefix+http.CanonicalHeaderKey(f.Name), f.Value)
	}
}

func (s *responseStream) OnCloseConnection() {
	defer close(s.done)
	// drop the connection without writing a response
	if hijacker, ok := s.w.(http.Hijacker); ok {
		if conn, _, err := hijacker.Hijack(); err == nil {
			conn.Close()
			return
		}
	}
	panic(http.ErrAbortHandler)
}
