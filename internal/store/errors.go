package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates caller input of the wrong shape.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeIndexOutOfRange indicates an index outside the table bounds.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeInvariantViolation indicates the allocator and the table
	// disagree. It signals a bug in the store, not caller misuse.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// Error is returned by every store operation that fails.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the operation that failed ("createItem", "updateItem", ...).
	Op string

	// Index is the index argument, or -1 when the operation has none.
	Index int

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %s: %s (index=%d)", e.Code, e.Op, e.Message, e.Index)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of a store error, or "" if err is not one.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsInvalidArgument returns true if err is an INVALID_ARGUMENT store error.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == ErrCodeInvalidArgument
}

// IsIndexOutOfRange returns true if err is an INDEX_OUT_OF_RANGE store error.
func IsIndexOutOfRange(err error) bool {
	return CodeOf(err) == ErrCodeIndexOutOfRange
}

// IsInvariantViolation returns true if err is an INVARIANT_VIOLATION store error.
func IsInvariantViolation(err error) bool {
	return CodeOf(err) == ErrCodeInvariantViolation
}

func invalidArgument(op string, index int, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Op:      op,
		Index:   index,
		Message: fmt.Sprintf(format, args...),
	}
}

func outOfRange(op string, index int, err error) *Error {
	return &Error{
		Code:    ErrCodeIndexOutOfRange,
		Op:      op,
		Index:   index,
		Message: "index is out of range",
		Err:     err,
	}
}

func invariantViolation(op string, index int, err error) *Error {
	return &Error{
		Code:    ErrCodeInvariantViolation,
		Op:      op,
		Index:   index,
		Message: "slot bookkeeping is inconsistent",
		Err:     err,
	}
}
