// Package server serves a cache backend over HTTP/1. It stands in for
// the real transport during demos and tests: incoming requests become
// backend fetches, and the backend's delivery callbacks become
// response writes.
package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/replay-cache/replay-cache/backend"
	"github.com/replay-cache/replay-cache/core"
)

type Server struct {
	backend *backend.Backend
	log     zerolog.Logger
	router  chi.Router
}

// NewServer wires the backend behind a catch-all route. metrics and
// logger may be nil.
func NewServer(b *backend.Backend, metrics *Metrics, logger *zerolog.Logger) *Server {
	serverLog := log.Logger
	if logger != nil {
		serverLog = *logger
	}
	s := &Server{backend: b, log: serverLog}
	router := chi.NewRouter()
	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	router.Handle("/*", http.HandlerFunc(s.serve))
	s.router = router
	return s
}

// Handler returns the http handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}

	s.log.Trace().Str("host", r.Host).Str("path", r.URL.Path).Msgf("Incoming request: %s %s", r.Method, r.URL.Path)
	stream := newResponseStream(w, s.log)
	s.backend.FetchResponse(requestHeaders(r), body, stream)

	// FetchResponse may have scheduled delivery for later, or decided
	// to never deliver at all. Hold the handler goroutine until the
	// stream is done or the client goes away.
	select {
	case <-stream.done:
	case <-r.Context().Done():
		s.backend.CloseResponseStream(stream)
	}
}

// requestHeaders translates an incoming request into the pseudo-header
// form the backend keys on.
func requestHeaders(r *http.Request) core.HeaderBlock {
	var headers core.HeaderBlock
	headers.Add(":authority", r.Host)
	headers.Add(":path", r.URL.RequestURI())
	headers.Add(":method", r.Method)
	for name, values := range r.Header {
		for _, value := range values {
			headers.Add(name, value)
		}
	}
	return headers
}
