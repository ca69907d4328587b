// Package store holds the client's in-memory state. Each container calls a
// service, reconciles its local copy on success, and reports the outcome as a
// Result the UI can show directly.
package store

import (
	"errors"
	"fmt"

	"github.com/strrl/copycat/internal/api"
)

// ErrNetwork marks a failure to reach the backend or read its reply
var ErrNetwork = errors.New("network error, please try again later")

// Result is the outcome of a store operation. Err is nil on success; on
// failure it wraps ErrNetwork, api.ErrUnauthorized or an *api.AppError.
type Result struct {
	Message string
	Err     error
}

// Success reports whether the operation succeeded
func (r Result) Success() bool {
	return r.Err == nil
}

func succeeded(msg string) Result {
	return Result{Message: msg}
}

// failed converts an error returned by a service call
func failed(err error) Result {
	if errors.Is(err, api.ErrUnauthorized) {
		return Result{Message: err.Error(), Err: err}
	}
	return Result{Message: ErrNetwork.Error(), Err: fmt.Errorf("%w: %w", ErrNetwork, err)}
}

// rejected converts a non-success envelope, using fallback when msg is empty
func rejected[T any](env *api.Envelope[T], fallback string) Result {
	msg := env.Msg
	if msg == "" {
		msg = fallback
	}
	return Result{Message: msg, Err: &api.AppError{Code: env.Code, Msg: msg}}
}
