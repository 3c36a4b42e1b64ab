package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the upstream service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the call did not finish within its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the upstream rejected the call for quota reasons.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeExternalService indicates a server-side error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTemplateNotFound indicates a prompt template is missing from the store.
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication errors. Upstream credentials that are rejected are not
// retryable on the same provider.
const (
	// ErrCodeUnauthorized indicates the provider rejected the credential.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the credential lacks access to the model.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Provider orchestration errors
const (
	// ErrCodeUnsupportedOperation indicates a provider was asked for an
	// operation outside its capability set.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	// ErrCodeMalformedOutput indicates the provider answered but the answer
	// could not be parsed into the expected shape.
	ErrCodeMalformedOutput ErrorCode = "MALFORMED_OUTPUT"
	// ErrCodeNoProviderAvailable indicates no configured provider supports the operation.
	ErrCodeNoProviderAvailable ErrorCode = "NO_PROVIDER_AVAILABLE"
	// ErrCodeProvidersExhausted indicates every candidate provider was tried and failed.
	ErrCodeProvidersExhausted ErrorCode = "PROVIDERS_EXHAUSTED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
