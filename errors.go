package userdb

import (
	"errors"
	"fmt"
	"strings"
)

// Errno classifies every failure surfaced by userdb.
type Errno int

// Stable error numbers. Callers branch on these, never on messages.
const (
	// ErrnoUnknown is an unclassified failure, such as a driver error.
	ErrnoUnknown Errno = 1
	// ErrnoType is a type or programming error, such as a mapping that
	// writes through a non-object value or a malformed credential record.
	ErrnoType Errno = 2
	// ErrnoValidation is a missing required argument. It is always raised
	// before any statement is issued.
	ErrnoValidation Errno = 3
)

// UnknownCode is the code of an errno missing from the code table.
const UnknownCode = "UNKNOWN_CODE_PLEASE_REPORT"

var codes = map[Errno]string{
	ErrnoUnknown:    "UNKNOWN_ERROR",
	ErrnoType:       "TYPE_ERROR",
	ErrnoValidation: "MISSING_ARGUMENT",
}

// Code returns the code string of errno, or UnknownCode.
func (n Errno) Code() string {
	if c, ok := codes[n]; ok {
		return c
	}
	return UnknownCode
}

// Sentinels matched by errors.Is against any *Error of the same errno.
var (
	ErrUnknown    = &Error{Errno: ErrnoUnknown, Code: ErrnoUnknown.Code()}
	ErrType       = &Error{Errno: ErrnoType, Code: ErrnoType.Code()}
	ErrValidation = &Error{Errno: ErrnoValidation, Code: ErrnoValidation.Code()}
)

// Error is a normalized userdb failure.
type Error struct {
	Errno   Errno
	Code    string
	Message string
	Err     error // Underlying cause, if any
}

// Error returns the error string.
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same errno.
// This allows errors.Is(err, userdb.ErrValidation).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Errno == e.Errno
}

// NewError returns an *Error for errno with the code resolved from the code table.
func NewError(errno Errno, message string) *Error {
	return &Error{Errno: errno, Code: errno.Code(), Message: message}
}

// MissingArgument returns the validation error of operation op missing args.
func MissingArgument(op string, args ...string) *Error {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = "'" + a + "'"
	}
	return NewError(ErrnoValidation, fmt.Sprintf("%s: Missing argument %s", op, strings.Join(quoted, " and/or ")))
}

// TypeError is a programming error: a value did not have the expected shape.
type TypeError struct {
	Msg string
}

// Error returns the error string.
func (e *TypeError) Error() string {
	return e.Msg
}

// NewTypeError returns a TypeError with a formatted message.
func NewTypeError(format string, a ...any) *TypeError {
	return &TypeError{Msg: fmt.Sprintf(format, a...)}
}

// ToError normalizes err. An *Error in the chain is returned as is, a
// *TypeError becomes ErrnoType and anything else ErrnoUnknown. Driver error
// numbers are not errnos; they stay reachable through Unwrap. ToError(nil)
// returns nil.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	errno := ErrnoUnknown
	var te *TypeError
	if errors.As(err, &te) {
		errno = ErrnoType
	}
	return &Error{Errno: errno, Code: errno.Code(), Message: err.Error(), Err: err}
}

// ErrnoOf returns the errno of err after normalization, or 0 for nil.
func ErrnoOf(err error) Errno {
	if e := ToError(err); e != nil {
		return e.Errno
	}
	return 0
}

// IsValidation returns true if err is a missing-argument error.
func IsValidation(err error) bool {
	return err != nil && errors.Is(err, ErrValidation)
}

// IsTypeError returns true if err normalizes to ErrnoType.
func IsTypeError(err error) bool {
	return ErrnoOf(err) == ErrnoType
}
