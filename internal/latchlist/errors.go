package latchlist

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes list errors.
type ErrorCode string

const (
	// ErrCodeRange indicates a position outside the valid bounds.
	ErrCodeRange ErrorCode = "RANGE"

	// ErrCodeDuplicateID indicates an insert with an id already in the list.
	ErrCodeDuplicateID ErrorCode = "DUPLICATE_ID"

	// ErrCodeNotFound indicates an operation on an unknown id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is returned by list operations that reject their input.
// The list is left unmodified whenever an Error is returned.
type Error struct {
	Code     ErrorCode
	Message  string
	ID       string
	Position int
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRangeError reports whether err is a position out of range error.
func IsRangeError(err error) bool {
	return hasCode(err, ErrCodeRange)
}

// IsDuplicateError reports whether err is a duplicate id error.
func IsDuplicateError(err error) bool {
	return hasCode(err, ErrCodeDuplicateID)
}

// IsNotFoundError reports whether err is an unknown id error.
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func newRangeError(id string, position, max int) *Error {
	return &Error{
		Code:     ErrCodeRange,
		Message:  fmt.Sprintf("position %d out of range [0, %d]", position, max),
		ID:       id,
		Position: position,
	}
}

func newDuplicateError(id string) *Error {
	return &Error{
		Code:     ErrCodeDuplicateID,
		Message:  "item with this id already exists",
		ID:       id,
		Position: -1,
	}
}

func newNotFoundError(id string) *Error {
	return &Error{
		Code:     ErrCodeNotFound,
		Message:  "item not found",
		ID:       id,
		Position: -1,
	}
}
