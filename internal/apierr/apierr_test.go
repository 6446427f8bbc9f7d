package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryableFixedPerCode(t *testing.T) {
	cases := []struct {
		code Code
		want bool
	}{
		{CodeRateLimited, true},
		{CodeRequestTimeout, true},
		{CodeTranscriptionTimeout, true},
		{CodeServiceUnavailable, true},
		{CodeValidationError, false},
		{CodeSessionClosed, false},
		{CodeInternalError, false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.code); got != tc.want {
			t.Errorf("IsRetryable(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestErrorUnwrapAndCodeOf(t *testing.T) {
	cause := errors.New("boom")
	err := New(CodeSessionNotFound, "session not found", cause)

	if !errors.Is(err, err) {
		t.Fatalf("expected error to be itself via errors.Is")
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if CodeOf(err) != CodeSessionNotFound {
		t.Fatalf("CodeOf() = %v, want %v", CodeOf(err), CodeSessionNotFound)
	}
	if CodeOf(cause) != CodeInternalError {
		t.Fatalf("CodeOf(plain error) = %v, want CodeInternalError", CodeOf(cause))
	}
}

func TestErrorWrappedByFmtErrorfStillResolves(t *testing.T) {
	err := New(CodeRequestTimeout, "timed out", nil)
	wrapped := fmt.Errorf("handling request: %w", err)

	if CodeOf(wrapped) != CodeRequestTimeout {
		t.Fatalf("CodeOf(wrapped) = %v, want %v", CodeOf(wrapped), CodeRequestTimeout)
	}
	if !IsRetryableErr(wrapped) {
		t.Fatalf("expected wrapped REQUEST_TIMEOUT error to be retryable")
	}
}

func TestToEnvelopeIncludesAllFields(t *testing.T) {
	err := New(CodeValidationError, "bad input", nil).
		WithDetail("field 'text' is required").
		WithHint("include a non-empty text field")

	env := err.ToEnvelope()
	if env.Error.Code != CodeValidationError {
		t.Fatalf("Envelope code = %v, want %v", env.Error.Code, CodeValidationError)
	}
	if env.Error.Message != "bad input" {
		t.Fatalf("Envelope message = %q", env.Error.Message)
	}
	if env.Error.Detail == "" || env.Error.Hint == "" {
		t.Fatalf("expected detail and hint to be set, got %+v", env.Error)
	}
	if env.Error.Retryable {
		t.Fatalf("VALIDATION_ERROR should not be retryable")
	}
}

func TestIsRetryableErrOnPlainError(t *testing.T) {
	if IsRetryableErr(errors.New("plain")) {
		t.Fatalf("expected a plain error to be non-retryable")
	}
	if IsRetryableErr(nil) {
		t.Fatalf("expected a nil error to be non-retryable")
	}
}
