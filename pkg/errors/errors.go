package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType is the category an admin API error falls into
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

// Machine-readable codes carried in the error envelope
const (
	CodeInvalidQuery        = "INVALID_QUERY"
	CodeInvalidCommand      = "INVALID_COMMAND"
	CodeSnapshotUnavailable = "SNAPSHOT_UNAVAILABLE"
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeNotFound:    http.StatusNotFound,
	ErrorTypeInternal:    http.StatusInternalServerError,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
}

// AppError is an error the HTTP layer knows how to render
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCode sets the envelope code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails replaces the detail map, e.g. per-field validation messages
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, 1)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newAppError(t ErrorType, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: statusByType[t],
		StackTrace: callers(),
	}
}

// callers skips itself, newAppError and the exported constructor
func callers() string {
	var pcs [32]uintptr
	n := runtime.Callers(4, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			return b.String()
		}
	}
}

// NewValidationError reports a rejected query or command
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, message)
}

// NewNotFoundError reports a missing resource, e.g. NewNotFoundError("order")
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, resource+" not found")
}

func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, message)
}

// NewUnavailableError reports a dependency that cannot serve right now,
// such as an unreadable snapshot
func NewUnavailableError(service string) *AppError {
	return newAppError(ErrorTypeUnavailable, fmt.Sprintf("service '%s' is unavailable", service))
}

// GetAppError returns the first AppError in err's chain, or nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsAppError(err error) bool { return GetAppError(err) != nil }

// IsType reports whether err's chain holds an AppError of type t
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsNotFound(err error) bool    { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool  { return IsType(err, ErrorTypeValidation) }
func IsUnavailable(err error) bool { return IsType(err, ErrorTypeUnavailable) }
