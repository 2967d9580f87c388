package backend

import (
	"time"

	"github.com/replay-cache/replay-cache/core"
)

// Test-setup conveniences. All of these delegate to the store and may
// be called before or after bootstrap, concurrently with serving.

// AddResponse caches a response for (host, path).
func (b *Backend) AddResponse(host, path string, headers core.HeaderBlock, body []byte) {
	b.store.Insert(host, path, core.Response{Headers: headers, Body: body})
}

// AddResponseWithTrailers caches a response whose trailers are sent
// after the body.
func (b *Backend) AddResponseWithTrailers(host, path string, headers core.HeaderBlock, body []byte, trailers core.HeaderBlock) {
	b.store.Insert(host, path, core.Response{Headers: headers, Body: body, Trailers: trailers})
}

// AddResponseWithEarlyHints caches a response preceded by the given
// early-hint header blocks, delivered in order.
func (b *Backend) AddResponseWithEarlyHints(host, path string, headers core.HeaderBlock, body []byte, earlyHints []core.HeaderBlock) {
	b.store.Insert(host, path, core.Response{Headers: headers, Body: body, EarlyHints: earlyHints})
}

// AddSimpleResponse caches a response carrying only the status code
// and a content-length header.
func (b *Backend) AddSimpleResponse(host, path string, statusCode int, body []byte) {
	b.store.AddSimpleResponse(host, path, statusCode, body)
}

// AddSpecialResponse simulates a special behavior at (host, path).
func (b *Backend) AddSpecialResponse(host, path string, responseType core.SpecialType) {
	b.store.Insert(host, path, core.Response{Type: responseType})
}

// AddSpecialResponseWithBody simulates a special behavior with
// explicit headers and body.
func (b *Backend) AddSpecialResponseWithBody(host, path string, headers core.HeaderBlock, body []byte, responseType core.SpecialType) {
	b.store.Insert(host, path, core.Response{Headers: headers, Body: body, Type: responseType})
}

// AddDefaultResponse sets the response served on cache misses.
func (b *Backend) AddDefaultResponse(res core.Response) {
	b.store.SetDefault(res)
}

// SetResponseDelay assigns a simulated delivery delay to an existing
// response. It reports whether the response was found.
func (b *Backend) SetResponseDelay(host, path string, delay time.Duration) bool {
	return b.store.SetDelay(host, path, delay)
}

// GenerateDynamicResponses makes URLs with a numeric path serve a
// generated response of that many bytes.
func (b *Backend) GenerateDynamicResponses() {
	b.store.EnableDynamicMode()
}
