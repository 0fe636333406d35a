// Package transport provides the HTTP capability the Bot API client is built
// on: send a POST, get status, content type and body back.
package transport

import (
	"context"
	"net/http"
)

// Transport sends requests to the Bot API server.
type Transport interface {
	// Post sends body to url with the given headers. The request must be
	// abandoned once ctx is done.
	Post(ctx context.Context, url string, header http.Header, body []byte) (*Response, error)
	// Close releases pooled connections.
	Close() error
}

// Response represents a fully read server response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Kind names a Transport implementation.
type Kind string

const (
	// KindResty selects the resty based transport.
	KindResty Kind = "resty"
	// KindFastHTTP selects the fasthttp based transport.
	KindFastHTTP Kind = "fasthttp"
)

// New creates a transport of the given kind.
func New(kind Kind) (Transport, error) {
	switch kind {
	case KindResty, "":
		return NewResty()
	case KindFastHTTP:
		return NewFastHTTP(), nil
	default:
		return nil, &UnknownKindError{Kind: kind}
	}
}

// UnknownKindError is returned by New for unsupported transport kinds.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return "unknown transport kind: " + string(e.Kind)
}
