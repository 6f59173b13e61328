package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/circuitbreaker"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

func TestPoller_FetchAll_AllSucceed(t *testing.T) {
	a, b := newFakeVenue("binance"), newFakeVenue("kraken")
	p := NewPoller(logger.NewDiscard(), PollerConfig{Timeout: time.Second})

	results := p.FetchAll(context.Background(), []VenueClient{a, b}, "BTC/USDT", 5)

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for id, r := range results {
		if !r.OK() {
			t.Errorf("%s: unexpected error %v", id, r.Err)
		}
		if r.Snapshot.Venue != id || r.Snapshot.Symbol != "BTC/USDT" {
			t.Errorf("%s: snapshot = %+v", id, r.Snapshot)
		}
	}
}

func TestPoller_FetchAll_IsolatesFailures(t *testing.T) {
	good, bad := newFakeVenue("binance"), newFakeVenue("kraken")
	bad.err = errors.New("HTTP 503")
	p := NewPoller(logger.NewDiscard(), PollerConfig{Timeout: time.Second})

	for cycle := 0; cycle < 2; cycle++ {
		results := p.FetchAll(context.Background(), []VenueClient{good, bad}, "BTC/USDT", 5)

		if !results["binance"].OK() {
			t.Errorf("cycle %d: healthy venue failed: %v", cycle, results["binance"].Err)
		}
		err := results["kraken"].Err
		if !apperror.HasCode(err, apperror.CodeOrderbookFetchFailed) {
			t.Errorf("cycle %d: kraken err = %v, want ORDERBOOK_FETCH_FAILED", cycle, err)
		}
	}
	if got := good.calls.Load(); got != 2 {
		t.Errorf("healthy venue fetched %d times, want 2", got)
	}
}

func TestPoller_FetchAll_RecoversAdapterPanic(t *testing.T) {
	good, faulty := newFakeVenue("binance"), newFakeVenue("kraken")
	faulty.panics = true
	p := NewPoller(logger.NewDiscard(), PollerConfig{Timeout: time.Second})

	results := p.FetchAll(context.Background(), []VenueClient{good, faulty}, "BTC/USDT", 5)

	if !results["binance"].OK() {
		t.Errorf("healthy venue failed: %v", results["binance"].Err)
	}
	r := results["kraken"]
	if r.Snapshot != nil || !apperror.HasCode(r.Err, apperror.CodeInternalError) {
		t.Errorf("panicking venue = %+v, want INTERNAL_ERROR", r)
	}
	if apperror.IsFatal(r.Err) {
		t.Error("an adapter panic must not be fatal")
	}
}

func TestPoller_FetchAll_TimeoutBoundsCycle(t *testing.T) {
	fast := newFakeVenue("binance")
	slow := newFakeVenue("kraken")
	slow.delay = time.Second
	slow.ignoreCtx = true

	p := NewPoller(logger.NewDiscard(), PollerConfig{Timeout: 50 * time.Millisecond})

	start := time.Now()
	results := p.FetchAll(context.Background(), []VenueClient{fast, slow}, "BTC/USDT", 5)
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("FetchAll took %v, slow venue blocked the cycle", elapsed)
	}
	if !results["binance"].OK() {
		t.Errorf("fast venue failed: %v", results["binance"].Err)
	}
	if !apperror.HasCode(results["kraken"].Err, apperror.CodeServiceTimeout) {
		t.Errorf("slow venue err = %v, want SERVICE_TIMEOUT", results["kraken"].Err)
	}
}

func TestPoller_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	bad := newFakeVenue("kraken")
	bad.err = errors.New("connection refused")

	p := NewPoller(logger.NewDiscard(), PollerConfig{
		Timeout: time.Second,
		Breaker: func(venue string) circuitbreaker.Config {
			cfg := circuitbreaker.DefaultConfig(venue)
			cfg.ConsecutiveFailures = 2
			cfg.Timeout = time.Minute
			return cfg
		},
	})

	venues := []VenueClient{bad}
	p.FetchAll(context.Background(), venues, "BTC/USDT", 5)
	p.FetchAll(context.Background(), venues, "BTC/USDT", 5)

	results := p.FetchAll(context.Background(), venues, "BTC/USDT", 5)
	if !apperror.HasCode(results["kraken"].Err, apperror.CodeCircuitOpen) {
		t.Fatalf("err = %v, want CIRCUIT_OPEN", results["kraken"].Err)
	}
	if got := bad.calls.Load(); got != 2 {
		t.Errorf("venue called %d times, open breaker should short-circuit", got)
	}
	if !p.BreakerOpen("kraken") {
		t.Error("BreakerOpen = false")
	}
	if p.BreakerOpen("binance") {
		t.Error("unknown venue should not report an open breaker")
	}
}

func TestPoller_FetchAll_CancelledParent(t *testing.T) {
	slow := newFakeVenue("kraken")
	slow.delay = time.Second

	p := NewPoller(logger.NewDiscard(), PollerConfig{Timeout: 5 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := p.FetchAll(ctx, []VenueClient{slow}, "BTC/USDT", 5)
	if results["kraken"].OK() {
		t.Fatal("expected cancellation to surface as a fetch error")
	}
}
