package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates the same call may succeed if repeated.
	Retryable bool `json:"retryable"`
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

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
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
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// CodeOf returns the code of the outermost AppError in err's chain, or the
// empty code when there is none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// --- Common Error Constructors ---

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable.", service),
		Retryable: true, Details: map[string]any{"service": service},
	}
}

// ConnectionFailed creates a new AppError for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		Retryable: true, Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for a call that exceeded its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s did not complete in time.", operation),
		Retryable: true, Details: map[string]any{"operation": operation},
	}
}

// RateLimited creates a new AppError for a call rejected by an upstream quota.
func RateLimited(service string) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: fmt.Sprintf("%s rejected the request: rate limit exceeded.", service),
		Retryable: true, Details: map[string]any{"service": service},
	}
}

// ExternalServiceError creates a new AppError for a server-side failure of an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		Retryable: true, Details: map[string]any{"service": service}, Cause: cause,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Details: details,
	}
}

// TemplateNotFound creates a new AppError for a prompt template missing from the store.
func TemplateNotFound(name string) *AppError {
	return &AppError{
		Code: ErrCodeTemplateNotFound, Message: fmt.Sprintf("Prompt template %q not found.", name),
		Details: map[string]any{"template": name},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// Unauthorized creates a new AppError for a rejected credential.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{Code: ErrCodeUnauthorized, Message: reason}
}

// Forbidden creates a new AppError for a credential without access.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "Access to the resource is not permitted."
	}
	return &AppError{Code: ErrCodeForbidden, Message: reason}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// UnsupportedOperation creates a new AppError for an operation outside a
// provider's capability set.
func UnsupportedOperation(provider, operation string) *AppError {
	return &AppError{
		Code:    ErrCodeUnsupportedOperation,
		Message: fmt.Sprintf("Provider %s does not support %s.", provider, operation),
		Details: map[string]any{"provider": provider, "operation": operation},
	}
}

// MalformedOutput creates a new AppError for a provider answer that could not
// be parsed. The snippet is stored as a detail and should already be bounded.
func MalformedOutput(provider, snippet string) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedOutput,
		Message: fmt.Sprintf("Provider %s returned output that could not be parsed.", provider),
		Details: map[string]any{"provider": provider, "snippet": snippet},
	}
}

// NoProviderAvailable creates a new AppError for an operation no configured
// provider supports.
func NoProviderAvailable(operation string) *AppError {
	return &AppError{
		Code:    ErrCodeNoProviderAvailable,
		Message: fmt.Sprintf("No configured provider supports %s.", operation),
		Details: map[string]any{"operation": operation},
	}
}

// ProvidersExhausted creates a new AppError for an operation where every
// candidate failed. lastErr is kept as the cause.
func ProvidersExhausted(operation string, attempts int, candidates []string, lastErr error) *AppError {
	return &AppError{
		Code:    ErrCodeProvidersExhausted,
		Message: fmt.Sprintf("All providers failed for %s after %d attempt(s).", operation, attempts),
		Details: map[string]any{
			"operation":  operation,
			"attempts":   attempts,
			"candidates": candidates,
		},
		Cause: lastErr,
	}
}
