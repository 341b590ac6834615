package domain

import (
	"errors"
	"fmt"
)

// InvalidQueryError reports a query that cannot be built. It is a programming
// or input error and is never degraded to an empty result.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Reason
}

// TransportError reports a failure reaching the provider: connection errors,
// timeouts, or a non-2xx status. StatusCode is zero when no response arrived.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: GET %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport: GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeErrorKind classifies a decode failure.
type DecodeErrorKind string

const (
	DecodeSyntax              DecodeErrorKind = "syntax"
	DecodeMissingField        DecodeErrorKind = "missing_field"
	DecodeInvalidField        DecodeErrorKind = "invalid_field"
	DecodeInvalidTimestamp    DecodeErrorKind = "invalid_timestamp"
	DecodeUnknownGeometryType DecodeErrorKind = "unknown_geometry_type"
	DecodeInvalidCoordinates  DecodeErrorKind = "invalid_coordinates"
)

// DecodeError reports a malformed or schema-violating provider document.
// Field is a path such as "events[3].geometries[0].date".
type DecodeError struct {
	Kind  DecodeErrorKind
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := "decode " + string(e.Kind)
	if e.Field != "" {
		msg += " at " + e.Field
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrAllSubCallsFailed is wrapped by MergeError.
var ErrAllSubCallsFailed = errors.New("open and closed retrievals both failed")

// MergeError is returned when both halves of an open+closed merge fail and at
// least one of them failed in transport, so the caller can tell an outage from
// a legitimately empty result.
type MergeError struct {
	Open   error
	Closed error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%v: open: %v; closed: %v", ErrAllSubCallsFailed, e.Open, e.Closed)
}

func (e *MergeError) Unwrap() []error {
	return []error{ErrAllSubCallsFailed, e.Open, e.Closed}
}
