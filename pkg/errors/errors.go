package errors

import (
	"errors"
	"fmt"
)

// AppError carries a stable code and a user-facing message.
// Err keeps the underlying cause for logs.
type AppError struct {
	Code    int    // error code
	Message string // message shown to the user
	Err     error  // wrapped cause, optional
}

// Error implements error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap supports errors.Unwrap.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError creates an AppError.
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of e carrying err as its cause.
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// WithMessage returns a copy of e with a different user-facing message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// Is reports whether err is an AppError with the same code as target.
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode returns the code of err, or CodeUnknown for foreign errors.
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage returns the user-facing message of err.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong"
}

// ============== codes ==============

const (
	CodeSuccess = 0

	// order status 20000-20999
	CodeTransitionNotAllowed = 20001
	CodeTransitionRejected   = 20002
	CodeUnknownStatus        = 20003

	// chat 21000-21999
	CodeEmptyMessage   = 21001
	CodeNoConversation = 21002
	CodeSessionClosed  = 21003

	// notifications 22000-22999
	CodeNotificationNotFound = 22001

	// transport 30000-30999
	CodeNetwork          = 30001
	CodeRequestRejected  = 30002
	CodeUnauthorized     = 30003
	CodeDecodeFailed     = 30004
	CodeChannelClosed    = 30005
	CodeHandshakeFailure = 30006

	CodeUnknown = 50001
)

// ============== predefined ==============

// order status
var (
	ErrTransitionNotAllowed = NewError(CodeTransitionNotAllowed, "This status change is not allowed")
	ErrTransitionRejected   = NewError(CodeTransitionRejected, "The server rejected this status change")
	ErrUnknownStatus        = NewError(CodeUnknownStatus, "Unknown order status")
)

// chat
var (
	ErrEmptyMessage   = NewError(CodeEmptyMessage, "Message cannot be empty")
	ErrNoConversation = NewError(CodeNoConversation, "No conversation selected")
	ErrSessionClosed  = NewError(CodeSessionClosed, "Chat is closed")
)

// notifications
var (
	ErrNotificationNotFound = NewError(CodeNotificationNotFound, "Notification not found")
)

// transport
var (
	ErrNetwork          = NewError(CodeNetwork, "Network error, please try again")
	ErrRequestRejected  = NewError(CodeRequestRejected, "Request failed")
	ErrUnauthorized     = NewError(CodeUnauthorized, "Please sign in again")
	ErrDecodeFailed     = NewError(CodeDecodeFailed, "Unexpected server response")
	ErrChannelClosed    = NewError(CodeChannelClosed, "Realtime channel closed")
	ErrHandshakeFailure = NewError(CodeHandshakeFailure, "Could not connect to realtime channel")
)
