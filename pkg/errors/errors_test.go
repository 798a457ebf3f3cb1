package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeCountMismatch, "allgather count mismatch"),
			expected: "[COUNT_MISMATCH] allgather count mismatch",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeTransportError, "send failed", errors.New("connection reset")),
			expected: "[TRANSPORT_ERROR] send failed: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeOverflow, "global id overflow", underlying)

	unwrapped := err.Unwrap()
	assert.Equal(t, underlying, unwrapped)
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeTransportError, "error 1")
	err2 := New(CodeTransportError, "error 2")
	err3 := New(CodeOverflow, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsTransportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "transport error", err: ErrTransportError, expected: true},
		{name: "wrapped transport error", err: Wrap(CodeTransportError, "send failed", errors.New("reset")), expected: true},
		{name: "other error", err: ErrOverflow, expected: false},
		{name: "nil error", err: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransportError(tt.err))
		})
	}
}

func TestIsCountMismatch(t *testing.T) {
	assert.True(t, IsCountMismatch(ErrCountMismatch))
	assert.False(t, IsCountMismatch(ErrTransportError))
}

func TestIsOverflow(t *testing.T) {
	assert.True(t, IsOverflow(ErrOverflow))
	assert.False(t, IsOverflow(ErrTransportError))
}

func TestIsMissingInput(t *testing.T) {
	assert.True(t, IsMissingInput(ErrMissingInput))
	assert.False(t, IsMissingInput(ErrTransportError))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "app error", err: New(CodeTransportError, "transport"), expected: CodeTransportError},
		{name: "wrapped app error", err: Wrap(CodeOverflow, "overflow", errors.New("inner")), expected: CodeOverflow},
		{name: "standard error", err: errors.New("standard error"), expected: CodeUnknown},
		{name: "nil error", err: nil, expected: CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "app error", err: New(CodeCountMismatch, "counts disagree"), expected: "counts disagree"},
		{name: "standard error", err: errors.New("standard error"), expected: "standard error"},
		{name: "nil error", err: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorMessage(tt.err))
		})
	}
}

func TestErrorInfo(t *testing.T) {
	assert.Equal(t, CodeTransportError, ErrorInfo["TransportError"])
	assert.Equal(t, CodeCountMismatch, ErrorInfo["CountMismatch"])
	assert.Equal(t, CodeOverflow, ErrorInfo["OverflowError"])
	assert.Equal(t, CodeMissingInput, ErrorInfo["MissingInput"])
	assert.Equal(t, CodeStorageError, ErrorInfo["StorageError"])
	assert.Equal(t, CodeResultStoreError, ErrorInfo["ResultStoreError"])
}
