// Package domainerrors is the closed error taxonomy returned by services.
//
// Stores return infrastructure sentinels (see pkg/platform/sentinel); services
// translate them into one of the codes below so transports can map failures to
// user-facing messages without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure. The set is closed: adding a code means updating
// every transport mapping (see pkg/platform/httputil).
type Code string

const (
	// CodeValidation covers malformed or out-of-range input. Always recoverable
	// by correcting the request.
	CodeValidation Code = "validation_error"
	// CodeBadRequest covers undecodable payloads at the transport boundary.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound covers unknown vaults, proposals and invite codes.
	CodeNotFound Code = "not_found"
	// CodeAlreadyMember is returned when an identity joins a vault twice.
	CodeAlreadyMember Code = "already_member"
	// CodeCapacity is returned when a vault has reached its member limit.
	CodeCapacity Code = "capacity_reached"
	// CodeInsufficientFunds is returned when a withdrawal exceeds the balance.
	CodeInsufficientFunds Code = "insufficient_funds"
	// CodePersistence wraps load/save failures from the blob store. Not retried.
	CodePersistence Code = "persistence_error"
	// CodeInternalConsistency marks an invariant violation (e.g. a negative
	// balance after an append). Fatal for the command; never persisted.
	CodeInternalConsistency Code = "internal_consistency_fault"
	// CodeForbidden covers permission failures, including the self-vote lockout.
	CodeForbidden Code = "forbidden"
	// CodeConflict covers duplicate actions such as a second vote by one voter.
	CodeConflict Code = "conflict"
	// CodeInvalidState covers lifecycle violations (executing a pending proposal,
	// mutating a deactivated vault).
	CodeInvalidState Code = "invalid_state"
	// CodeUnauthorized is returned when no participant identity is present.
	CodeUnauthorized Code = "unauthorized"
	// CodeTimeout is returned when a store operation runs past its deadline.
	CodeTimeout Code = "timeout"
	// CodeInternal covers unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error is a domain failure with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports equality on code and message so tests can use errors.Is against
// a freshly constructed error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New constructs a domain error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost domain error, or CodeInternal when
// err carries none. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the message of the outermost domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
