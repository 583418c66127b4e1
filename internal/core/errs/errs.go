// Package errs defines the error taxonomy shared by the orchestrator and its adapters.
// Each kind wraps its cause so callers can use errors.Is and errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientIdentities is returned when the identity pool is smaller than the account list.
	ErrInsufficientIdentities = errors.New("insufficient identities")
	// ErrMalformedIdentity is returned when a proxy entry cannot be parsed.
	ErrMalformedIdentity = errors.New("malformed identity")
	// ErrDuplicateAccount is returned when two account records share an address.
	ErrDuplicateAccount = errors.New("duplicate account address")
)

// ConfigError is fatal before the batch loop starts.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SessionError is a per-account failure to acquire a usable session.
type SessionError struct {
	Msg string
	Err error
}

func (e *SessionError) Error() string {
	if e.Err == nil {
		return "session: " + e.Msg
	}
	return fmt.Sprintf("session: %s: %v", e.Msg, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// RemoteError is a non-success response from the remote API.
// Status is the HTTP status, or 0 when the failure was reported in the payload.
type RemoteError struct {
	Op     string
	Status int
	Msg    string
	Err    error
}

func (e *RemoteError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// SigningError means the account credential could not produce a signature.
// It is fatal to that account only.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return fmt.Sprintf("signing failed: %v", e.Err) }

func (e *SigningError) Unwrap() error { return e.Err }

// Configf builds a ConfigError around a cause.
func Configf(err error, format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
