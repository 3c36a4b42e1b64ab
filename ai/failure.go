package ai

import (
	"context"
	"errors"

	goerrors "github.com/kbukum/vidprofile/errors"
)

// FailureKind classifies a failed provider attempt for the router.
type FailureKind int

const (
	// FailureNone is the kind of a nil error.
	FailureNone FailureKind = iota
	// FailureTransient may succeed on another provider or later.
	FailureTransient
	// FailureUnsupported means the provider lacks the capability.
	FailureUnsupported
	// FailureMalformed means the provider answered with unusable output.
	FailureMalformed
	// FailureFatal means the provider is misconfigured or rejected the
	// credential; it should cool down.
	FailureFatal
	// FailureAbort is a request-level failure no other provider can fix.
	FailureAbort
)

// String returns the kind name.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransient:
		return "transient"
	case FailureUnsupported:
		return "unsupported"
	case FailureMalformed:
		return "malformed_output"
	case FailureFatal:
		return "fatal"
	case FailureAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// AbortError marks a failure that belongs to the request rather than the
// provider, such as a prompt that cannot be rendered.
type AbortError struct {
	Err error
}

func (e *AbortError) Error() string { return e.Err.Error() }
func (e *AbortError) Unwrap() error { return e.Err }

// Abort wraps err so Classify reports FailureAbort.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &AbortError{Err: err}
}

// Classify maps an error onto a FailureKind. Errors without a code are
// treated as transient.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var abort *AbortError
	if errors.As(err, &abort) || errors.Is(err, context.Canceled) {
		return FailureAbort
	}

	code := goerrors.CodeOf(err)
	switch {
	case code == goerrors.ErrCodeTemplateNotFound:
		return FailureAbort
	case code == goerrors.ErrCodeUnsupportedOperation:
		return FailureUnsupported
	case code == goerrors.ErrCodeMalformedOutput:
		return FailureMalformed
	case code == "" || goerrors.IsRetryableCode(code):
		return FailureTransient
	default:
		return FailureFatal
	}
}
