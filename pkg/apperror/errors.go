package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of domain error.
type ErrorCode int

const (
	CodeValidation ErrorCode = iota + 1000
	CodeNotFound
	CodeConflict
	CodeForbidden
	CodeTerminalState
	CodeNotCancellable
	CodeInternal
)

// ConflictDetail describes one appointment blocking a requested time range.
type ConflictDetail struct {
	AppointmentID string `json:"appointment_id"`
	Time          string `json:"time"`
}

// AppError is the application error carried from services to the HTTP layer.
type AppError struct {
	Code      ErrorCode        `json:"code"`
	Message   string           `json:"message"`
	Conflicts []ConflictDetail `json:"conflicts,omitempty"`
	Err       error            `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// StatusCode maps the error class to an HTTP status. The error-handling
// middleware looks for this method.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeValidation, CodeTerminalState, CodeNotCancellable:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func Validationf(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Conflict(message string, conflicts []ConflictDetail) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Conflicts: conflicts}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func TerminalState(message string) *AppError {
	return &AppError{Code: CodeTerminalState, Message: message}
}

func NotCancellable(message string) *AppError {
	return &AppError{Code: CodeNotCancellable, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal server error", Err: err}
}

// As unwraps err into an *AppError when possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsCode reports whether err is an AppError of the given class.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
