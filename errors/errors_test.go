package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
	if New(ErrCodeMalformedOutput, "bad json").Retryable {
		t.Error("MALFORMED_OUTPUT should not be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("template", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	if err.Details["resource"] != "template" {
		t.Errorf("expected resource=template, got %v", err.Details["resource"])
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := ServiceUnavailable("groq")
	err.WithDetails(map[string]any{"attempt": 2, "service": "gemini"})
	if err.Details["attempt"] != 2 {
		t.Errorf("expected attempt=2, got %v", err.Details["attempt"])
	}
	if err.Details["service"] != "gemini" {
		t.Errorf("expected service overwritten to gemini, got %v", err.Details["service"])
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{Code: ErrCodeInternal}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := Timeout("transcribe")
	if got := err.Error(); !strings.HasPrefix(got, "TIMEOUT: ") {
		t.Errorf("unexpected format %q", got)
	}
	err.WithCause(fmt.Errorf("deadline"))
	if got := err.Error(); !strings.Contains(got, "(cause: deadline)") {
		t.Errorf("expected cause in message, got %q", got)
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("api"), ErrCodeServiceUnavailable, true},
		{"ConnectionFailed", ConnectionFailed("groq"), ErrCodeConnectionFailed, true},
		{"Timeout", Timeout("extract_profile"), ErrCodeTimeout, true},
		{"RateLimited", RateLimited("gemini"), ErrCodeRateLimited, true},
		{"ExternalServiceError", ExternalServiceError("openrouter", nil), ErrCodeExternalService, true},
		{"MissingField", MissingField("profession"), ErrCodeMissingField, false},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, false},
		{"Unauthorized", Unauthorized(""), ErrCodeUnauthorized, false},
		{"Forbidden", Forbidden(""), ErrCodeForbidden, false},
		{"TemplateNotFound", TemplateNotFound("cv_generation"), ErrCodeTemplateNotFound, false},
		{"UnsupportedOperation", UnsupportedOperation("huggingface", "transcribe"), ErrCodeUnsupportedOperation, false},
		{"MalformedOutput", MalformedOutput("groq", "{oops"), ErrCodeMalformedOutput, false},
		{"NoProviderAvailable", NoProviderAvailable("transcribe"), ErrCodeNoProviderAvailable, false},
		{"ProvidersExhausted", ProvidersExhausted("extract_profile", 3, nil, nil), ErrCodeProvidersExhausted, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestErrorCode_IsRetryableCode_Table(t *testing.T) {
	retryable := []ErrorCode{ErrCodeServiceUnavailable, ErrCodeConnectionFailed, ErrCodeTimeout, ErrCodeRateLimited, ErrCodeExternalService}
	for _, code := range retryable {
		if !IsRetryableCode(code) {
			t.Errorf("expected %s to be retryable", code)
		}
	}

	nonRetryable := []ErrorCode{ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeUnauthorized, ErrCodeForbidden, ErrCodeInternal, ErrCodeMalformedOutput, ErrCodeUnsupportedOperation}
	for _, code := range nonRetryable {
		if IsRetryableCode(code) {
			t.Errorf("expected %s to NOT be retryable", code)
		}
	}
}

func TestProvidersExhausted_Details(t *testing.T) {
	last := MalformedOutput("gemini", "not json")
	err := ProvidersExhausted("extract_profile", 2, []string{"groq", "gemini"}, last)

	if err.Details["attempts"] != 2 {
		t.Errorf("expected attempts=2, got %v", err.Details["attempts"])
	}
	if err.Details["operation"] != "extract_profile" {
		t.Errorf("expected operation detail, got %v", err.Details["operation"])
	}
	if !stderrors.Is(err, last) {
		t.Error("expected last failure to be reachable through Unwrap")
	}
}

func TestHasCode_WalksChain(t *testing.T) {
	inner := Timeout("transcribe")
	outer := ProvidersExhausted("transcribe", 1, []string{"groq"}, inner)
	wrapped := fmt.Errorf("pipeline: %w", outer)

	if !HasCode(wrapped, ErrCodeProvidersExhausted) {
		t.Error("expected PROVIDERS_EXHAUSTED in chain")
	}
	if !HasCode(wrapped, ErrCodeTimeout) {
		t.Error("expected TIMEOUT in chain")
	}
	if HasCode(wrapped, ErrCodeRateLimited) {
		t.Error("did not expect RATE_LIMITED in chain")
	}
	if HasCode(nil, ErrCodeTimeout) {
		t.Error("nil error has no code")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("wrap: %w", NoProviderAvailable("transcribe"))); got != ErrCodeNoProviderAvailable {
		t.Errorf("expected NO_PROVIDER_AVAILABLE, got %s", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code, got %s", got)
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	original := TemplateNotFound("profile_extraction")
	wrapped := fmt.Errorf("render: %w", original)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to find wrapped AppError")
	}
	if appErr != original {
		t.Error("expected the original AppError")
	}
	if !IsAppError(wrapped) {
		t.Error("expected IsAppError to be true")
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected AsAppError to fail for plain errors")
	}
}
