package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError by code so errors.Is works against sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Connection ---

// ConnectionFailed creates an error for a dial or write that did not succeed.
func ConnectionFailed(target string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", target),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"target": target}, Cause: cause,
	}
}

// NotConnected creates an error for an operation attempted without an open connection.
func NotConnected(state string) *AppError {
	return &AppError{
		Code: ErrCodeNotConnected, Message: "The streaming connection is not open.",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"connection_state": state},
	}
}

// SessionClosed creates an error for use of a closed session.
func SessionClosed() *AppError {
	return &AppError{
		Code: ErrCodeSessionClosed, Message: "The session has been closed.",
		HTTPStatus: http.StatusGone, Retryable: false,
	}
}

// ServiceUnavailable creates an error for a backend that cannot take work right now.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates an error for a wait that ran out of time.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("Timed out waiting for %s.", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// --- Streaming ---

// StreamInProgress creates an error for a request issued while another is streaming.
func StreamInProgress(subjectID string) *AppError {
	return &AppError{
		Code: ErrCodeStreamInProgress, Message: "An analysis is already streaming.",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"subject_id": subjectID},
	}
}

// Protocol creates an error carrying the backend's diagnostic.
func Protocol(diagnostic string) *AppError {
	return &AppError{
		Code: ErrCodeProtocol, Message: diagnostic,
		HTTPStatus: http.StatusBadGateway, Retryable: false,
	}
}

// MalformedMessage creates an error for a frame that is not a valid message.
func MalformedMessage(cause error) *AppError {
	return &AppError{
		Code: ErrCodeMalformedMessage, Message: "Received a malformed message.",
		HTTPStatus: http.StatusBadGateway, Retryable: false, Cause: cause,
	}
}

// StreamAbandoned creates an error for a request cut off by a disconnect.
func StreamAbandoned(subjectID string) *AppError {
	return &AppError{
		Code: ErrCodeStreamAbandoned, Message: "The connection closed before the analysis finished.",
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"subject_id": subjectID},
	}
}

// --- Validation ---

// Validation creates an error for input that failed validation.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates an error for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// --- Authentication ---

// AuthRequired creates an error for an operation attempted without a credential.
func AuthRequired() *AppError {
	return &AppError{
		Code: ErrCodeAuthRequired, Message: "Authentication required. Please log in.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Unauthorized creates an error for a rejected credential.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication failed."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// TokenExpired creates an error for an expired credential.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "Your session has expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// InvalidToken creates an error for a credential that could not be verified.
func InvalidToken(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInvalidToken, Message: "Invalid authentication token.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false, Cause: cause,
	}
}

// --- Resources ---

// NotFound creates an error for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Storage creates an error for a failed archive operation.
func Storage(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: fmt.Sprintf("Archive %s failed.", operation),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
