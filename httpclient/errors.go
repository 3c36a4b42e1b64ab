package httpclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	goerrors "github.com/kbukum/vidprofile/errors"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, etc).
	ErrCodeConnection
	// ErrCodeAuth indicates an authentication/authorization failure (401/403).
	ErrCodeAuth
	// ErrCodeNotFound indicates the resource was not found (404).
	ErrCodeNotFound
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeValidation indicates a client-side validation error (400).
	ErrCodeValidation
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a structured HTTP client error with classification.
type Error struct {
	// StatusCode is the HTTP status code (0 for connection-level errors).
	StatusCode int
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Retryable indicates whether the operation can be retried.
	Retryable bool
	// Body is the original response body (may be nil).
	Body []byte
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewRateLimitError creates a rate-limit error.
func NewRateLimitError(body []byte) *Error {
	return &Error{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrCodeRateLimit,
		Message:    statusMessage(http.StatusTooManyRequests, body),
		Retryable:  true,
		Body:       body,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// ClassifyStatusCode converts an HTTP status code into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode, Message: statusMessage(statusCode, body), Body: body}
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(body)
	case statusCode == http.StatusRequestTimeout:
		e.Code, e.Retryable = ErrCodeTimeout, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	default:
		e.Code = ErrCodeServer
	}
	return e
}

// statusMessage keeps a short preview of the response body.
func statusMessage(status int, body []byte) string {
	preview := strings.TrimSpace(string(body))
	if r := []rune(preview); len(r) > 200 {
		preview = string(r[:200]) + "..."
	}
	if preview == "" {
		return http.StatusText(status)
	}
	return preview
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// IsAuth checks if an error is an authentication error.
func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAuth
}

// ToAppError maps an *Error from service onto the shared error taxonomy.
// Other errors are returned unchanged.
func ToAppError(service string, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	switch e.Code {
	case ErrCodeTimeout:
		return goerrors.Timeout(service).WithCause(err)
	case ErrCodeConnection:
		return goerrors.ConnectionFailed(service).WithCause(err)
	case ErrCodeRateLimit:
		return goerrors.RateLimited(service).WithCause(err)
	case ErrCodeServer:
		return goerrors.ExternalServiceError(service, err)
	default:
		return StatusError(service, e.StatusCode, e.Message).WithCause(err)
	}
}

// StatusError maps an upstream HTTP status onto the shared error taxonomy.
// 429, 408 and 5xx are transient; 401 and 403 are credential faults; other
// 4xx mean the request itself was rejected.
func StatusError(service string, status int, message string) *goerrors.AppError {
	switch {
	case status == http.StatusTooManyRequests:
		return goerrors.RateLimited(service)
	case status == http.StatusRequestTimeout:
		return goerrors.Timeout(service)
	case status >= 500:
		return goerrors.ExternalServiceError(service, fmt.Errorf("HTTP %d: %s", status, message))
	case status == http.StatusUnauthorized:
		return goerrors.Unauthorized(service + ": " + message)
	case status == http.StatusForbidden:
		return goerrors.Forbidden(service + ": " + message)
	case status == http.StatusNotFound:
		return goerrors.NotFound(service, message)
	default:
		return goerrors.InvalidInput(service, fmt.Sprintf("HTTP %d: %s", status, message))
	}
}
