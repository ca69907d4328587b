package api

import (
	"errors"
	"fmt"
)

// CodeOK and CodeUnauthorized are the envelope codes the client interprets.
const (
	CodeOK           = 0
	CodeUnauthorized = 401
)

// ErrUnauthorized is returned when the backend reports code 401. By the time a
// caller sees it the stored token has already been cleared.
var ErrUnauthorized = errors.New("authentication failed, please log in again")

// Envelope is the uniform {code, msg, data} wrapper of every response
type Envelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *T     `json:"data,omitempty"`
}

// OK reports whether the backend signalled success
func (e *Envelope[T]) OK() bool {
	return e != nil && e.Code == CodeOK
}

// Err returns nil on success and an *AppError otherwise
func (e *Envelope[T]) Err() error {
	if e.OK() {
		return nil
	}
	if e == nil {
		return &AppError{Code: -1, Msg: "empty response"}
	}
	return &AppError{Code: e.Code, Msg: e.Msg}
}

// Empty is the data type of endpoints that return no payload
type Empty struct{}

// AppError is an application-level failure: a non-zero envelope code
type AppError struct {
	Code int
	Msg  string
}

func (e *AppError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("request failed with code %d", e.Code)
	}
	return e.Msg
}

// TransportError wraps network and decoding failures
type TransportError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err came from the network or response decoding
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
