package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("venue-test")
	cfg.ConsecutiveFailures = 3
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	cb := New[int](cfg)

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected underlying error, got %v", i, err)
		}
	}

	if !cb.IsOpen() {
		t.Fatalf("expected open breaker, state = %s", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if called {
		t.Error("function must not run while the breaker is open")
	}
	if !apperror.HasCode(err, apperror.CodeCircuitOpen) {
		t.Errorf("expected CIRCUIT_OPEN, got %v", err)
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}

func TestCircuitBreaker_CancellationDoesNotTrip(t *testing.T) {
	cfg := DefaultConfig("venue-cancel")
	cfg.ConsecutiveFailures = 1
	cb := New[int](cfg)

	for i := 0; i < 3; i++ {
		cb.Execute(func() (int, error) { return 0, context.Canceled })
	}
	if cb.IsOpen() {
		t.Error("context cancellation should not count as a failure")
	}

	v, err := cb.Execute(func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("Execute = (%d, %v), want (7, nil)", v, err)
	}
}
