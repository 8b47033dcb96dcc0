// Package fault defines the closed failure taxonomy for render jobs.
// Callers branch on Kind, never on concrete error types: validation and
// assembly failures are permanent, engine and transport failures are
// retryable, timeouts carry their own retry policy.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation covers bad job parameters. Never retried.
	KindValidation Kind = iota
	// KindAssembly covers timeline overlap, missing clip references,
	// disallowed gaps and invalid transition wiring. Never retried.
	KindAssembly
	// KindEngine covers non-zero engine exit or a missing output file
	// after a reported success. Retryable unless marked deterministic.
	KindEngine
	// KindTimeout is a wall-clock timeout on the engine subprocess,
	// classified separately so it can carry a distinct retry policy.
	KindTimeout
	// KindTransport covers object-store and pub/sub connectivity.
	// Always retryable with backoff.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAssembly:
		return "assembly"
	case KindEngine:
		return "engine"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a classified failure with a stable code string suitable for
// status events and a human message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error

	// deterministic marks an engine failure that will recur on retry
	// (bad input rather than a flaky environment).
	deterministic bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-running the job can succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindValidation, KindAssembly:
		return false
	case KindEngine:
		return !e.deterministic
	default:
		return true
	}
}

func Validation(code, message string, err error) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Err: err}
}

func Assembly(code, message string, err error) *Error {
	return &Error{Kind: KindAssembly, Code: code, Message: message, Err: err}
}

func Engine(code, message string, err error) *Error {
	return &Error{Kind: KindEngine, Code: code, Message: message, Err: err}
}

// DeterministicEngine marks an engine failure caused by the input itself,
// e.g. a corrupt source file, so it is never retried.
func DeterministicEngine(code, message string, err error) *Error {
	return &Error{Kind: KindEngine, Code: code, Message: message, Err: err, deterministic: true}
}

func Timeout(code, message string, err error) *Error {
	return &Error{Kind: KindTimeout, Code: code, Message: message, Err: err}
}

func Transport(code, message string, err error) *Error {
	return &Error{Kind: KindTransport, Code: code, Message: message, Err: err}
}

// From extracts a classified error from err's chain. Unclassified errors
// come back as transport faults: the unknown failures in this system are
// IO against external collaborators.
func From(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: KindTransport, Code: "internal_error", Message: "unexpected failure", Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
