package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind is the closed classification of everything that can go wrong on
// the wire. Loosely-typed server payloads are decoded into this set;
// anything unrecognized lands on KindServer.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindTimeout
	KindNetworkUnavailable
	KindUnauthorized
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTimeout:
		return "timeout"
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "server_error"
	}
}

// Error is the gateway's error type. Status is zero when the failure never
// produced an HTTP response. Message carries the server-provided text from a
// {"error": ...} payload when one was present.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	}
	return e.Kind.String()
}

// KindOf extracts the ErrorKind from any error returned by the gateway.
// Non-gateway errors report KindServer.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindServer
}

// ServerMessage returns the server-provided error text, if any.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Describe turns a gateway error into a sentence fit for the conversation
// log or an upload status line.
func Describe(err error) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return "Something went wrong. Please try again."
	}
	switch apiErr.Kind {
	case KindTimeout:
		return "The request timed out. Please try again."
	case KindNetworkUnavailable:
		return "Could not reach the server. Check your connection and try again."
	case KindUnauthorized:
		return "Your session has expired. Please log in again."
	default:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "The server reported an error. Please try again."
	}
}

// classifyTransport maps a transport-level failure (no HTTP response) onto
// the taxonomy.
func classifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout}
	}
	return &Error{Kind: KindNetworkUnavailable, Message: err.Error()}
}

// classifyStatus maps a non-2xx HTTP response onto the taxonomy. body is the
// already-decoded {"error": ...} text, possibly empty.
func classifyStatus(status int, message string) *Error {
	switch {
	case status == 401:
		return &Error{Kind: KindUnauthorized, Status: status, Message: message}
	case status == 504:
		return &Error{Kind: KindTimeout, Status: status, Message: message}
	case status == 503:
		return &Error{Kind: KindNetworkUnavailable, Status: status, Message: message}
	default:
		return &Error{Kind: KindServer, Status: status, Message: message}
	}
}
