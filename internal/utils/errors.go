package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	CodeAuthRequired       ErrorCode = "AUTH_REQUIRED"
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeSeatsUnavailable   ErrorCode = "SEATS_UNAVAILABLE"
	CodeUploadFailed       ErrorCode = "UPLOAD_FAILED"
	CodeBackendWriteFailed ErrorCode = "BACKEND_WRITE_FAILED"
	CodeBackendReadFailed  ErrorCode = "BACKEND_READ_FAILED"
	CodeConflict           ErrorCode = "CONFLICT"
)

// AppError is the error type returned across the service boundary. Handlers
// map Code to an HTTP status; Retryable tells the client a manual retry may
// succeed.
type AppError struct {
	Code      ErrorCode         `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
	Details   map[string]string `json:"details,omitempty"`
	Err       error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeAuthRequired:
		return http.StatusUnauthorized
	case CodeValidation:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSeatsUnavailable, CodeConflict:
		return http.StatusConflict
	case CodeUploadFailed:
		return http.StatusBadGateway
	case CodeBackendWriteFailed, CodeBackendReadFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NewAuthRequiredError() *AppError {
	return &AppError{Code: CodeAuthRequired, Message: ErrUnauthorized}
}

func NewInvalidCredentialsError() *AppError {
	return &AppError{Code: CodeAuthRequired, Message: ErrInvalidCredentials}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewValidationErrorWithDetails(details map[string]string) *AppError {
	return &AppError{Code: CodeValidation, Message: ErrValidationFailed, Details: details}
}

func NewAuthorizationError(message string) *AppError {
	if message == "" {
		message = ErrForbidden
	}
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func NewSeatsUnavailableError() *AppError {
	return &AppError{Code: CodeSeatsUnavailable, Message: ErrSeatsUnavailable}
}

func NewUploadError(err error) *AppError {
	return &AppError{Code: CodeUploadFailed, Message: ErrFileUploadFailed, Err: err}
}

func NewBackendWriteError(message string, err error) *AppError {
	return &AppError{Code: CodeBackendWriteFailed, Message: message, Retryable: true, Err: err}
}

func NewBackendReadError(message string, err error) *AppError {
	return &AppError{Code: CodeBackendReadFailed, Message: message, Retryable: true, Err: err}
}

// AsAppError unwraps err to an *AppError, if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an *AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
