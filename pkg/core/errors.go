package core

import "fmt"

// Code is a machine-readable error category.
type Code string

// Error codes.
const (
	// CodeConnection is an open or close failure reported by the driver.
	CodeConnection Code = "CONNECTION"
	// CodeNotConnected is an operation attempted without an open connection.
	CodeNotConnected Code = "NOT_CONNECTED"
	// CodeQueryCompile is a malformed statement or parameter mismatch.
	CodeQueryCompile Code = "QUERY_COMPILE"
	// CodeQueryExecution is a driver failure while running a statement or reading its rows.
	CodeQueryExecution Code = "QUERY_EXECUTION"
	// CodeUnsupportedType is a field or column type outside the supported set.
	CodeUnsupportedType Code = "UNSUPPORTED_TYPE"
	// CodeInvalidDefinition is a malformed table or column definition.
	CodeInvalidDefinition Code = "INVALID_DEFINITION"
	// CodeTypeMismatch is a value that does not fit the field or column it targets.
	CodeTypeMismatch Code = "TYPE_MISMATCH"
	// CodeGuardPoisoned is a connection whose guard was released by a panic.
	CodeGuardPoisoned Code = "GUARD_POISONED"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrConnection        = &Error{Code: CodeConnection}
	ErrNotConnected      = &Error{Code: CodeNotConnected, Message: "database connection not established"}
	ErrQueryCompile      = &Error{Code: CodeQueryCompile}
	ErrQueryExecution    = &Error{Code: CodeQueryExecution}
	ErrUnsupportedType   = &Error{Code: CodeUnsupportedType}
	ErrInvalidDefinition = &Error{Code: CodeInvalidDefinition}
	ErrTypeMismatch      = &Error{Code: CodeTypeMismatch}
	ErrGuardPoisoned     = &Error{Code: CodeGuardPoisoned}
)

// Error is the structured error returned by every sqlerm operation.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable description
	Cause   error  // Wrapped driver or conversion error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
