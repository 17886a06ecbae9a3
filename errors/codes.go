package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection errors
const (
	// ErrCodeConnectionFailed indicates a failed dial or a failed write on an open connection.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeNotConnected indicates an operation that needs an open connection.
	ErrCodeNotConnected ErrorCode = "NOT_CONNECTED"
	// ErrCodeSessionClosed indicates the session was already closed.
	ErrCodeSessionClosed ErrorCode = "SESSION_CLOSED"
	// ErrCodeServiceUnavailable indicates the backend is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates a wait ran out of time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Streaming errors
const (
	// ErrCodeStreamInProgress indicates a request is already streaming.
	ErrCodeStreamInProgress ErrorCode = "STREAM_IN_PROGRESS"
	// ErrCodeProtocol indicates the backend reported a failure for the request.
	ErrCodeProtocol ErrorCode = "PROTOCOL_ERROR"
	// ErrCodeMalformedMessage indicates a frame that could not be decoded.
	ErrCodeMalformedMessage ErrorCode = "MALFORMED_MESSAGE"
	// ErrCodeStreamAbandoned indicates the connection dropped before the request finished.
	ErrCodeStreamAbandoned ErrorCode = "STREAM_ABANDONED"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication errors
const (
	// ErrCodeAuthRequired indicates no credential was available.
	ErrCodeAuthRequired ErrorCode = "AUTH_REQUIRED"
	// ErrCodeUnauthorized indicates the credential was rejected.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeTokenExpired indicates the credential has expired.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeInvalidToken indicates the credential could not be parsed or verified.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStorage indicates a failure in the report archive.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed:   true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeStreamAbandoned:    true,
	ErrCodeStorage:            true,
}

// IsRetryableCode reports whether a caller may reasonably try again.
// nutristream itself never retries.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
