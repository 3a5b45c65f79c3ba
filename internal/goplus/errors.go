package goplus

import (
	"errors"
	"fmt"
)

// ErrQueryFailed matches every *QueryError.
var ErrQueryFailed = errors.New("query failed")

// QueryError is an application-level failure reported inside a well-formed
// response envelope.
type QueryError struct {
	Code    int
	Message string
}

func (e *QueryError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.Code == 0 {
		return msg
	}
	return fmt.Sprintf("%s (code %d)", msg, e.Code)
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}

// TransportError is a failure to get a usable response from the API:
// network errors, timeouts, non-2xx statuses and undecodable bodies.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
