package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries an HTTP status and a machine readable code alongside the cause
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequestError creates a 400 error
func BadRequestError(code, message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, code, message, err)
}

// NotFoundError creates a 404 error
func NotFoundError(code, message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, code, message, err)
}

// ConflictError creates a 409 error
func ConflictError(code, message string, err error) *AppError {
	return NewAppError(http.StatusConflict, code, message, err)
}

// InternalError creates a 500 error
func InternalError(code, message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, code, message, err)
}

// GetAppError returns the AppError anywhere in err's chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func sprintf(format string, v ...interface{}) string {
	if len(v) == 0 {
		return format
	}
	return fmt.Sprintf(format, v...)
}
