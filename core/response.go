package core

import "time"

// SpecialType selects the delivery behavior of a stored response.
type SpecialType int

const (
	// Normal responses are delivered as stored.
	Normal SpecialType = iota
	// CloseConnection terminates the connection instead of answering.
	CloseConnection
	// IgnoreRequest never delivers anything for the request,
	// simulating an unresponsive server.
	IgnoreRequest
	// RetryLater tells the client to back off and try again.
	RetryLater
	// GenerateBytes delivers a freshly generated body of NumBytes
	// bytes instead of stored content.
	GenerateBytes
)

func (t SpecialType) String() string {
	switch t {
	case Normal:
		return "normal"
	case CloseConnection:
		return "close-connection"
	case IgnoreRequest:
		return "ignore-request"
	case RetryLater:
		return "retry-later"
	case GenerateBytes:
		return "generate-bytes"
	}
	return "unknown"
}

// Response is one cache entry: a pre-built response ready to be
// delivered for a (host, path) key. Published responses are immutable
// except for Delay, which the store mutates under its lock; lookups
// hand out value snapshots, so holders never observe the mutation.
type Response struct {
	Headers    HeaderBlock
	Body       []byte
	Trailers   HeaderBlock
	EarlyHints []HeaderBlock
	Type       SpecialType
	// NumBytes is the body length to generate for GenerateBytes.
	NumBytes int
	// Delay postpones delivery after a successful lookup.
	Delay time.Duration
}

// clone returns a response owning all of its storage. Inserts go
// through clone so a published entry never aliases caller memory.
func (r Response) clone() Response {
	out := r
	out.Headers = r.Headers.Clone()
	out.Trailers = r.Trailers.Clone()
	if r.EarlyHints != nil {
		out.EarlyHints = make([]HeaderBlock, len(r.EarlyHints))
		for i, hints := range r.EarlyHints {
			out.EarlyHints[i] = hints.Clone()
		}
	}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}
