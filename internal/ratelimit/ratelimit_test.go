package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNew_DisabledReturnsNil(t *testing.T) {
	l := New(0)
	if l != nil {
		t.Fatal("expected nil limiter for zero budget")
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter Wait = %v", err)
	}
	if !l.Allow() {
		t.Error("nil limiter should always allow")
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewWithBurst(0.001, 1)
	if !l.Allow() {
		t.Fatal("first token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected Wait to fail once the budget is exhausted")
	}
}

func TestNew_BurstIsTenPercent(t *testing.T) {
	l := New(1200)
	if got := l.Tokens(); got < 119 || got > 120 {
		t.Errorf("initial tokens = %v, want 120", got)
	}
}
