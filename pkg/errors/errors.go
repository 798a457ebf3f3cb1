// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown         = "UNKNOWN_ERROR"
	CodeTransportError  = "TRANSPORT_ERROR"
	CodeCountMismatch   = "COUNT_MISMATCH"
	CodeOverflow        = "OVERFLOW_ERROR"
	CodeMissingInput    = "MISSING_INPUT"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeTimeout         = "TIMEOUT_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConfigError     = "CONFIG_ERROR"
	CodeStorageError    = "STORAGE_ERROR"
	CodeResultStoreError = "RESULTSTORE_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrTransportError   = New(CodeTransportError, "transport error")
	ErrCountMismatch    = New(CodeCountMismatch, "count mismatch")
	ErrOverflow         = New(CodeOverflow, "value overflows destination type")
	ErrMissingInput     = New(CodeMissingInput, "missing required input")
	ErrInvalidInput     = New(CodeInvalidInput, "invalid input")
	ErrTimeout          = New(CodeTimeout, "operation timeout")
	ErrNotFound         = New(CodeNotFound, "resource not found")
	ErrConfigError      = New(CodeConfigError, "configuration error")
	ErrStorageError     = New(CodeStorageError, "storage error")
	ErrResultStoreError = New(CodeResultStoreError, "result store error")
)

// IsTransportError checks if the error is a transport error.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransportError)
}

// IsCountMismatch checks if the error is a count-mismatch error.
func IsCountMismatch(err error) bool {
	return errors.Is(err, ErrCountMismatch)
}

// IsOverflow checks if the error is an overflow error.
func IsOverflow(err error) bool {
	return errors.Is(err, ErrOverflow)
}

// IsMissingInput checks if the error is a missing-input error.
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingInput)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ErrorInfo provides error information mapping.
var ErrorInfo = map[string]string{
	"TransportError":   CodeTransportError,
	"CountMismatch":    CodeCountMismatch,
	"OverflowError":    CodeOverflow,
	"MissingInput":     CodeMissingInput,
	"StorageError":     CodeStorageError,
	"ResultStoreError": CodeResultStoreError,
}
