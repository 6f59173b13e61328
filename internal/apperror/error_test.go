package apperror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew_UsesDefaultMessage(t *testing.T) {
	err := New(CodeOrderbookFetchFailed, WithVenue("kraken"), WithContext("HTTP 503"))

	if err.Message != "Failed to fetch orderbook" {
		t.Errorf("Message = %q", err.Message)
	}
	msg := err.Error()
	for _, want := range []string{"ORDERBOOK_FETCH_FAILED", "kraken", "HTTP 503"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	base := New(CodeCircuitOpen, WithVenue("binance"))
	wrapped := fmt.Errorf("fetch: %w", base)

	if !HasCode(wrapped, CodeCircuitOpen) {
		t.Error("expected CIRCUIT_OPEN to be found through fmt wrapping")
	}
	if HasCode(wrapped, CodeServiceTimeout) {
		t.Error("unexpected SERVICE_TIMEOUT match")
	}
	if GetCode(wrapped) != CodeCircuitOpen {
		t.Errorf("GetCode = %s", GetCode(wrapped))
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeInternalError, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}

	cause := context.DeadlineExceeded
	err := Wrap(cause, CodeServiceTimeout, "depth request")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("wrapped error should unwrap to its cause")
	}

	existing := New(CodeInvalidOrderbook)
	if got := Wrap(existing, CodeInternalError, "ctx"); got != existing || got.Context != "ctx" {
		t.Error("Wrap should reuse an existing AppError and fill empty context")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{Configuration("fewer than two venues"), true},
		{New(CodeVenueRegistryError), true},
		{New(CodeOrderbookFetchFailed), false},
		{Internal("cycle panic", errors.New("boom")), false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsFatal(tt.err); got != tt.want {
			t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestLogArgs_IncludesStackForInternal(t *testing.T) {
	args := Internal("cycle 3", errors.New("nil map")).LogArgs()

	keys := make(map[any]bool)
	for i := 0; i < len(args); i += 2 {
		keys[args[i]] = true
	}
	for _, k := range []string{"code", "error", "context", "cause", "stack"} {
		if !keys[k] {
			t.Errorf("LogArgs missing key %q", k)
		}
	}
}
