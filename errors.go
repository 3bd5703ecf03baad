package reflection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeIllegalState       ErrorCode = "illegal_state"
	CodeNotImplemented     ErrorCode = "not_implemented"
	CodeNoMatchingOverload ErrorCode = "no_matching_overload"
	CodeNotFound           ErrorCode = "not_found"
	CodeInvalidArgument    ErrorCode = "invalid_argument"
	CodeNativeException    ErrorCode = "native_exception" // error or panic raised by bound native code
	CodeInternal           ErrorCode = "internal"
)

// Error is the error envelope used throughout the reflection core.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new error with the given code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// WithDetails returns a new Error with the provided map merged into details.
func (e *Error) WithDetails(details map[string]any) *Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: merged,
	}
}

// PanicError carries a recovered panic value that was not itself an error.
// It is what a call context receives when native code fails in a way that
// cannot be described by an error value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("unknown exception: %v", e.Value)
}

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// AsError maps any error to an *Error.
// Errors that already are (or wrap) *Error pass through, panics become
// CodeNativeException, and everything else is treated as an error
// returned by native code.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return NewError(CodeNativeException, pe.Error()).WithDetail("panic", fmt.Sprint(pe.Value))
	}

	// Handle multi-errors (errors.Join)
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		errs := u.Unwrap()
		if len(errs) > 0 {
			first := AsError(errs[0])
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return &Error{
				Code:    first.Code,
				Message: strings.Join(msgs, "; "),
				Details: first.Details,
			}
		}
	}

	return NewError(CodeNativeException, err.Error())
}

func recoveredError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return &PanicError{Value: rec}
}
