package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewError(t *testing.T) {
	err := NewError(20001, "test error")

	if err.Code != 20001 {
		t.Errorf("Expected code 20001, got %d", err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("Expected message 'test error', got '%s'", err.Message)
	}
	if err.Err != nil {
		t.Error("Expected Err to be nil")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			err:      NewError(20001, "test error"),
			expected: "[20001] test error",
		},
		{
			name:     "with wrapped error",
			err:      NewError(20001, "test error").Wrap(errors.New("original error")),
			expected: "[20001] test error: original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestAppError_WrapKeepsPredefinedUntouched(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := ErrNetwork.Wrap(originalErr)

	if appErr.Code != ErrNetwork.Code {
		t.Errorf("Expected code %d, got %d", ErrNetwork.Code, appErr.Code)
	}
	if errors.Unwrap(appErr) != originalErr {
		t.Error("Expected unwrapped error to be the original error")
	}
	if ErrNetwork.Err != nil {
		t.Error("Wrap must not mutate the predefined error")
	}
}

func TestAppError_WithMessage(t *testing.T) {
	err := ErrRequestRejected.Wrap(errors.New("400")).WithMessage("order already shipped")

	if err.Code != CodeRequestRejected {
		t.Errorf("Expected code %d, got %d", CodeRequestRejected, err.Code)
	}
	if err.Message != "order already shipped" {
		t.Errorf("Unexpected message %q", err.Message)
	}
	if err.Err == nil {
		t.Error("Expected cause to be kept")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   *AppError
		expected bool
	}{
		{"same error", ErrEmptyMessage, ErrEmptyMessage, true},
		{"wrapped same error", ErrEmptyMessage.Wrap(errors.New("wrapped")), ErrEmptyMessage, true},
		{"fmt wrapped", fmt.Errorf("send: %w", ErrNoConversation), ErrNoConversation, true},
		{"different error", ErrNetwork, ErrEmptyMessage, false},
		{"non-app error", errors.New("standard error"), ErrEmptyMessage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.target); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestGetCodeAndMessage(t *testing.T) {
	if got := GetCode(ErrTransitionRejected.Wrap(errors.New("x"))); got != CodeTransitionRejected {
		t.Errorf("Expected %d, got %d", CodeTransitionRejected, got)
	}
	if got := GetCode(errors.New("plain")); got != CodeUnknown {
		t.Errorf("Expected %d, got %d", CodeUnknown, got)
	}
	if got := GetMessage(ErrEmptyMessage); got != "Message cannot be empty" {
		t.Errorf("Unexpected message %q", got)
	}
	if got := GetMessage(errors.New("plain")); got != "Something went wrong" {
		t.Errorf("Unexpected message %q", got)
	}
}
