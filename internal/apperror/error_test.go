package apperror

import (
	"errors"
	"testing"
)

func TestWithContext_AccumulatesPairs(t *testing.T) {
	err := New(CodeInvalidParams,
		WithContext("hop", 2),
		WithContext("router", "0xdead"))

	if err.Context != "hop=2, router=0xdead" {
		t.Errorf("unexpected context: %q", err.Context)
	}
	want := "INVALID_PARAMS: " + messages[CodeInvalidParams] + " (context: hop=2, router=0xdead)"
	if err.Error() != want {
		t.Errorf("unexpected rendering: %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeEthereumRPCError, "suggest gas price")

	if err.Context != "suggest gas price" {
		t.Errorf("unexpected context: %q", err.Context)
	}
	if !errors.Is(err.Unwrap(), cause) {
		t.Error("cause not preserved")
	}

	// Wrapping an AppError keeps its code and fills an empty context.
	inner := New(CodeQuoteFailed)
	rewrapped := Wrap(inner, CodeExternalServiceError, "verify")
	if rewrapped.Code != CodeQuoteFailed {
		t.Errorf("expected QUOTE_FAILED, got %s", rewrapped.Code)
	}
	if rewrapped.Context != "verify" {
		t.Errorf("unexpected context: %q", rewrapped.Context)
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(CodeSlippageExceeded)); got != CodeSlippageExceeded {
		t.Errorf("expected SLIPPAGE_EXCEEDED, got %s", got)
	}
	if got := GetCode(errors.New("plain")); got != CodeUnknownError {
		t.Errorf("expected UNKNOWN_ERROR, got %s", got)
	}
}
