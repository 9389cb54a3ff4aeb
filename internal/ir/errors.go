package ir

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while replaying or matching.
//
// Runtime errors include:
//   - Max depth exceeded: a self-recursive operation did not terminate
//   - Number type: a builtin expected a number and received something else
//   - Match failed: a required pattern stayed unbound
//   - Invariant violated: the recorded program is malformed
//   - Unknown operation: the catalog cannot resolve an operation id
//
// The first two abort the current replay and are reported to the editor as
// a single message (see UserMessage). The rest indicate a program that the
// recording flow should never have produced.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// OperationID identifies the operation being replayed, if known.
	OperationID OperationID

	// Path is the dot-joined action stack at which the error occurred.
	Path string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMaxDepthExceeded indicates the call depth guard tripped.
	ErrCodeMaxDepthExceeded RuntimeErrorCode = "MAX_DEPTH_EXCEEDED"

	// ErrCodeNumberType indicates a non-numeric value where a number was expected.
	ErrCodeNumberType RuntimeErrorCode = "NUMBER_TYPE"

	// ErrCodeMatchFailed indicates a required pattern was not bound.
	ErrCodeMatchFailed RuntimeErrorCode = "MATCH_FAILED"

	// ErrCodeInvariant indicates a malformed recorded program.
	ErrCodeInvariant RuntimeErrorCode = "INVARIANT_VIOLATED"

	// ErrCodeUnknownOperation indicates an operation id missing from the catalog.
	ErrCodeUnknownOperation RuntimeErrorCode = "UNKNOWN_OPERATION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.OperationID != "" && e.Path != "" {
		return fmt.Sprintf("%s: %s (operation=%s, path=%s)", e.Code, e.Message, e.OperationID, e.Path)
	}
	if e.OperationID != "" {
		return fmt.Sprintf("%s: %s (operation=%s)", e.Code, e.Message, e.OperationID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UserMessage returns the single line shown to the editor for errors that
// abort a replay.
func (e *RuntimeError) UserMessage() string {
	switch e.Code {
	case ErrCodeMaxDepthExceeded:
		return "Max Depth exceeded!"
	case ErrCodeNumberType:
		return "Number Type expected!"
	default:
		return e.Message
	}
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsMaxDepthError returns true if the error is a depth guard error.
// Uses errors.As to handle wrapped errors.
func IsMaxDepthError(err error) bool {
	return hasCode(err, ErrCodeMaxDepthExceeded)
}

// IsNumberTypeError returns true if the error is a number type error.
func IsNumberTypeError(err error) bool {
	return hasCode(err, ErrCodeNumberType)
}

// IsMatchError returns true if a required pattern was unmatched.
func IsMatchError(err error) bool {
	return hasCode(err, ErrCodeMatchFailed)
}

// IsInvariantError returns true if the error is an invariant violation.
func IsInvariantError(err error) bool {
	return hasCode(err, ErrCodeInvariant)
}

// IsUnknownOperationError returns true if an operation could not be resolved.
func IsUnknownOperationError(err error) bool {
	return hasCode(err, ErrCodeUnknownOperation)
}

// IsApproximationError returns true for errors that abort a replay but are
// recoverable by rolling back the edit that caused them.
func IsApproximationError(err error) bool {
	return IsMaxDepthError(err) || IsNumberTypeError(err)
}

// AsRuntimeError extracts a RuntimeError from a wrapped error chain.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	ok := errors.As(err, &re)
	return re, ok
}

// NewMaxDepthError creates a RuntimeError for the depth guard.
func NewMaxDepthError(opID OperationID, depth, maxDepth int) *RuntimeError {
	return &RuntimeError{
		Code:        ErrCodeMaxDepthExceeded,
		Message:     fmt.Sprintf("call depth %d exceeds limit %d", depth, maxDepth),
		OperationID: opID,
		Details: map[string]string{
			"depth":     fmt.Sprintf("%d", depth),
			"max_depth": fmt.Sprintf("%d", maxDepth),
		},
	}
}

// NewNumberTypeError creates a RuntimeError for a non-numeric input value.
func NewNumberTypeError(v Value) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNumberType,
		Message: "Input value expected a number, but was supplied something else",
		Details: map[string]string{"value": v.String()},
	}
}

// NewMatchError creates a RuntimeError for an unmatched required pattern.
func NewMatchError(opID OperationID, pattern PatternID) *RuntimeError {
	return &RuntimeError{
		Code:        ErrCodeMatchFailed,
		Message:     fmt.Sprintf("required pattern %q was not matched", pattern),
		OperationID: opID,
		Details:     map[string]string{"pattern": string(pattern)},
	}
}

// NewInvariantError creates a RuntimeError for a malformed program.
func NewInvariantError(format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvariant,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewUnknownOperationError creates a RuntimeError for an unresolved id.
func NewUnknownOperationError(id OperationID) *RuntimeError {
	return &RuntimeError{
		Code:        ErrCodeUnknownOperation,
		Message:     fmt.Sprintf("operation %q not found", id),
		OperationID: id,
	}
}
