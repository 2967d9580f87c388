// Package backend implements the server-facing side of the response
// cache: it bootstraps a store from a directory of captured responses
// and answers fetches from server streams, including simulated delays,
// dropped connections and dynamically generated bodies.
package backend

import (
	"io/fs"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/replay-cache/replay-cache/capture"
	"github.com/replay-cache/replay-cache/core"
)

// Events receives a notification for every request the backend
// resolves. Use it e.g. for wiring up metrics. Implementations must be
// safe for concurrent use.
type Events interface {
	ResponseServed(outcome string)
}

// Outcome labels passed to Events.
const (
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeDynamic = "dynamic"
	OutcomeRetry   = "retry"
	OutcomeIgnored = "ignored"
	OutcomeClosed  = "closed"
)

type Config struct {
	// Store to serve from. A fresh empty store is created if nil.
	Store *core.ResponseStore
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
	// Events receives delivery outcome notifications. May be nil.
	Events Events
}

// Backend serves pre-built responses from a ResponseStore. Server
// goroutines call FetchResponse and CloseResponseStream concurrently
// with each other and with test-setup goroutines inserting responses.
type Backend struct {
	store  *core.ResponseStore
	log    zerolog.Logger
	events Events

	mu           sync.Mutex
	pending      map[RequestHandler]*time.Timer
	initialized  bool
	webTransport bool
}

func New(cfg Config) *Backend {
	store := cfg.Store
	if store == nil {
		store = core.NewResponseStore()
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Backend{
		store:   store,
		log:     logger,
		events:  cfg.Events,
		pending: make(map[RequestHandler]*time.Timer),
	}
}

// Store exposes the underlying response store for test setup.
func (b *Backend) Store() *core.ResponseStore { return b.store }

// InitializeBackend loads every capture file under dir into the store
// and then registers the resources referenced by push hints, following
// references recursively. A pushed resource whose key is already
// present is not parsed again, so mutually referencing captures
// terminate. Any unparsable file aborts the bootstrap.
func (b *Backend) InitializeBackend(dir string) error {
	var pushURLs []string
	err := filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		file, err := capture.Load(dir, name)
		if err != nil {
			return err
		}
		b.insertFile(file)
		pushURLs = append(pushURLs, file.PushURLs()...)
		return nil
	})
	if err == nil {
		err = b.loadPushedResources(dir, pushURLs)
	}
	if err != nil {
		b.log.Error().Err(err).Str("dir", dir).Msg("Could not load capture directory")
		return err
	}

	b.mu.Lock()
	b.initialized = true
	b.mu.Unlock()
	b.log.Info().Int("responses", b.store.Len()).Str("dir", dir).Msg("Response cache initialized")
	return nil
}

// IsInitialized reports whether a bootstrap has completed. Inserts
// after bootstrap do not change it.
func (b *Backend) IsInitialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

func (b *Backend) insertFile(file *capture.ResourceFile) {
	if b.store.Contains(file.Host(), file.Path()) {
		b.log.Warn().Str("host", file.Host()).Str("path", file.Path()).
			Msg("Duplicate key, overwriting previous response")
	}
	b.store.Insert(file.Host(), file.Path(), file.Response())
	b.log.Debug().Str("host", file.Host()).Str("path", file.Path()).
		Str("file", file.Name()).Msg("Loaded response")
}

// loadPushedResources drains the push-hint queue. Each URL resolves to
// a file under dir at the same host/path location.
func (b *Backend) loadPushedResources(dir string, urls []string) error {
	for len(urls) > 0 {
		url := urls[0]
		urls = urls[1:]
		host, path := capture.SplitHostPath(url)
		if b.store.Contains(host, path) {
			continue
		}
		name := filepath.Join(dir, filepath.FromSlash(url))
		file, err := capture.Load(dir, name)
		if err != nil {
			return err
		}
		b.insertFile(file)
		urls = append(urls, file.PushURLs()...)
	}
	return nil
}

// FetchResponse answers one request, delivering through the handler.
// Delivery happens on the calling goroutine unless the matched
// response carries a delay, in which case it is scheduled and can be
// canceled with CloseResponseStream.
func (b *Backend) FetchResponse(requestHeaders core.HeaderBlock, requestBody []byte, handler RequestHandler) {
	host, path := requestTarget(requestHeaders)
	res, ok := b.store.Lookup(host, path)
	if !ok {
		b.log.Debug().Str("host", host).Str("path", path).Msg("Response not found in cache")
		b.deliver(handler, notFoundResponse(), OutcomeMiss)
		return
	}

	outcome := OutcomeHit
	switch res.Type {
	case core.IgnoreRequest:
		// the simulated behavior is to do nothing at all
		b.log.Debug().Str("host", host).Str("path", path).Msg("Ignoring request")
		b.served(OutcomeIgnored)
		return
	case core.CloseConnection:
		b.log.Debug().Str("host", host).Str("path", path).Msg("Closing connection")
		handler.OnCloseConnection()
		b.served(OutcomeClosed)
		return
	case core.RetryLater:
		res = retryResponse(res)
		outcome = OutcomeRetry
	case core.GenerateBytes:
		res.Headers = res.Headers.Clone()
		res.Headers.Set("content-length", strconv.Itoa(res.NumBytes))
		res.Body = generateBody(res.NumBytes)
		outcome = OutcomeDynamic
	}

	if res.Delay > 0 {
		b.log.Debug().Str("host", host).Str("path", path).Dur("delay", res.Delay).
			Msg("Delaying response delivery")
		b.schedule(handler, res, outcome)
		return
	}
	b.deliver(handler, res, outcome)
}

// CloseResponseStream cancels any delivery still scheduled for the
// handler. A canceled handler receives no delivery at all.
func (b *Backend) CloseResponseStream(handler RequestHandler) {
	b.mu.Lock()
	if timer, ok := b.pending[handler]; ok {
		timer.Stop()
		delete(b.pending, handler)
	}
	b.mu.Unlock()
}

// EnableWebTransport turns on the session-transport decision point.
// Call it during setup, before serving begins.
func (b *Backend) EnableWebTransport() {
	b.mu.Lock()
	b.webTransport = true
	b.mu.Unlock()
}

func (b *Backend) SupportsWebTransport() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.webTransport
}

// ProcessWebTransportRequest decides whether to accept a session.
// Sessions are accepted when the feature is enabled and the requested
// (host, path) resolves in the store; with the feature disabled every
// session is rejected.
func (b *Backend) ProcessWebTransportRequest(requestHeaders core.HeaderBlock, session WebTransportSession) WebTransportResponse {
	var headers core.HeaderBlock
	if !b.SupportsWebTransport() {
		headers.Add(core.StatusHeader, "400")
		return WebTransportResponse{Headers: headers}
	}
	host, path := requestTarget(requestHeaders)
	if _, ok := b.store.Lookup(host, path); ok {
		headers.Add(core.StatusHeader, "200")
	} else {
		headers.Add(core.StatusHeader, "404")
	}
	return WebTransportResponse{Headers: headers}
}

// schedule arranges delivery after the response's delay. The timer
// checks at fire time whether the handler was closed in the interim.
func (b *Backend) schedule(handler RequestHandler, res core.Response, outcome string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[handler] = time.AfterFunc(res.Delay, func() {
		b.mu.Lock()
		_, live := b.pending[handler]
		delete(b.pending, handler)
		b.mu.Unlock()
		if !live {
			// canceled between firing and running
			return
		}
		b.deliver(handler, res, outcome)
	})
}

func (b *Backend) deliver(handler RequestHandler, res core.Response, outcome string) {
	for _, hints := range res.EarlyHints {
		handler.OnEarlyHints(hints)
	}
	handler.OnResponse(res.Headers, res.Body, res.Trailers)
	b.served(outcome)
}

func (b *Backend) served(outcome string) {
	if b.events != nil {
		b.events.ResponseServed(outcome)
	}
}

// requestTarget extracts the lookup key components from request
// headers, preferring HTTP/2-style pseudo-headers.
func requestTarget(headers core.HeaderBlock) (host, path string) {
	host, _ = headers.Get(":authority")
	if host == "" {
		host, _ = headers.Get("host")
	}
	path, _ = headers.Get(":path")
	return host, path
}

// notFoundResponse is the answer for a total miss. It is built fresh
// per request and never enters the store.
func notFoundResponse() core.Response {
	body := []byte("404 not found")
	var headers core.HeaderBlock
	headers.Add(core.StatusHeader, "404")
	headers.Add("content-length", strconv.Itoa(len(body)))
	return core.Response{Headers: headers, Body: body}
}

// retryResponse shapes a RetryLater entry for delivery. Entries stored
// without headers get a synthesized 503 telling the client to back
// off.
func retryResponse(res core.Response) core.Response {
	if _, ok := res.Headers.Status(); ok {
		return res
	}
	var headers core.HeaderBlock
	headers.Add(core.StatusHeader, "503")
	headers.Add("retry-after", "60")
	out := res
	out.Headers = headers
	return out
}

// generateBody produces n bytes of deterministic filler.
func generateBody(n int) []byte {
	body := make([]byte, n)
	for i := range body {
		body[i] = 'a' + byte(i%26)
	}
	return body
}
