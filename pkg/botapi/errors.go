package botapi

import (
	"errors"
	"fmt"

	"github.com/VladPetriv/botapi/pkg/errs"
)

// Errors caused by the caller. They are never retried.
var (
	// ErrInvalidMethodName is returned when a method name does not match ^[a-z]([a-z_]+)?$.
	ErrInvalidMethodName = errs.New("invalid method name")
	// ErrUnsupportedArgumentType is returned when an argument can be encoded neither as JSON nor as a form field.
	ErrUnsupportedArgumentType = errs.New("unsupported argument type")
	// ErrClosed is returned when the client or stream is used after Close.
	ErrClosed = errs.New("client is closed")
)

// ProtocolError reports a failure to talk to the server: the transport failed,
// the server answered with something other than JSON, or with a non-200 status.
type ProtocolError struct {
	// StatusCode is 0 when no response was received.
	StatusCode int
	// Content is the decoded body (*Dict or []any) when it was JSON, otherwise the raw bytes.
	Content any
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("protocol error: %s (status code: %d)", e.Message, e.StatusCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// RemoteError reports that the server understood the request but answered
// with "ok": false (or without an "ok" field at all).
type RemoteError struct {
	StatusCode int
	// Description is the human readable reason given by the server, if any.
	Description string
	Content     any
}

func (e *RemoteError) Error() string {
	msg := "the server responded with an error."
	if e.Description != "" {
		msg += " The server said: " + e.Description
	}

	return msg
}

// IsTransient reports whether err is worth retrying: the server could not be
// reached or refused the request. Caller-caused errors are not transient.
func IsTransient(err error) bool {
	if err == nil || errs.IsExpected(err) {
		return false
	}

	var (
		protocolErr *ProtocolError
		remoteErr   *RemoteError
	)

	return errors.As(err, &protocolErr) || errors.As(err, &remoteErr)
}
