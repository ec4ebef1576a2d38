package relay

import (
	"errors"
	"fmt"
	"net/http"
)

// Envelope statuses for calls that produced no HTTP response.
const (
	// StatusTransportError means the request was sent or attempted but no
	// response arrived (DNS failure, refused connection, timeout).
	StatusTransportError = 0
	// StatusRequestRejected means the relay refused the operation before any
	// round-trip (unknown schema, unencodable body or credentials).
	StatusRequestRejected = -1
)

// FailureKind classifies a non-successful envelope.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureAuth
	FailureTransport
	FailureStatus
	FailureMalformed
	FailureRequest
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "success"
	case FailureAuth:
		return "auth_failure"
	case FailureTransport:
		return "transport_failure"
	case FailureStatus:
		return "status_failure"
	case FailureMalformed:
		return "malformed_response"
	case FailureRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Sentinels matched by (*Error).Is.
var (
	ErrAuthentication    = errors.New("authentication failed")
	ErrTransport         = errors.New("transport failure")
	ErrStatus            = errors.New("unsuccessful response status")
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidRequest    = errors.New("invalid request")
)

// Error is the Go error form of a failed envelope.
type Error struct {
	Kind    FailureKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == StatusTransportError || e.Status == StatusRequestRejected {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// Is lets errors.Is match the package sentinels by failure kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.Kind == FailureAuth
	case ErrTransport:
		return e.Kind == FailureTransport
	case ErrStatus:
		return e.Kind == FailureStatus
	case ErrMalformedResponse:
		return e.Kind == FailureMalformed
	case ErrInvalidRequest:
		return e.Kind == FailureRequest
	}
	return false
}

// Envelope is the uniform result of every relay operation. On a terminal
// result exactly one of Data and Error is populated; Status is the HTTP
// status of the last round-trip attempted.
type Envelope[T any] struct {
	Status int         `json:"status"`
	Data   *T          `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Kind   FailureKind `json:"-"`
}

// OK reports whether the envelope carries a successful payload.
func (e Envelope[T]) OK() bool {
	return e.Kind == FailureNone && e.Data != nil
}

// Err returns nil for a successful envelope and an *Error otherwise.
func (e Envelope[T]) Err() error {
	if e.OK() {
		return nil
	}
	kind := e.Kind
	if kind == FailureNone {
		kind = FailureMalformed
	}
	return &Error{Kind: kind, Status: e.Status, Message: e.Error}
}

func success[T any](status int, data *T) Envelope[T] {
	return Envelope[T]{Status: status, Data: data}
}

func failure[T any](kind FailureKind, status int, msg string) Envelope[T] {
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = kind.String()
	}
	return Envelope[T]{Status: status, Error: msg, Kind: kind}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
