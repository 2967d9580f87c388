package backend

import "github.com/replay-cache/replay-cache/core"

// RequestHandler is the delivery surface a server stream provides for
// one request. Calls arrive in order: zero or more OnEarlyHints, then
// either one OnResponse or one OnCloseConnection. A handler receives
// at most one delivery, and none at all after CloseResponseStream
// cancels it or when the matched response ignores the request.
type RequestHandler interface {
	// OnEarlyHints delivers one preliminary header block ahead of the
	// main response.
	OnEarlyHints(headers core.HeaderBlock)
	// OnResponse delivers the response. Trailers may be nil.
	OnResponse(headers core.HeaderBlock, body []byte, trailers core.HeaderBlock)
	// OnCloseConnection terminates the underlying connection without
	// producing a response.
	OnCloseConnection()
}

// WebTransportSession is the session collaborator owned by the server.
// The backend only decides whether to accept it; the session's own
// read/write protocol lives with the server.
type WebTransportSession interface{}

// WebTransportResponse is the accept or reject decision for a session
// request, expressed as the header block to answer with.
type WebTransportResponse struct {
	Headers core.HeaderBlock
}

// Accepted reports whether the decision lets the session proceed.
func (r WebTransportResponse) Accepted() bool {
	code, ok := r.Headers.Status()
	return ok && code == 200
}
