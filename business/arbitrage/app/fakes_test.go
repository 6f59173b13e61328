package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	obApp "github.com/fd1az/arbitrage-scanner/business/orderbook/app"
	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// book builds a snapshot from [price, qty] pairs.
func book(t *testing.T, venue string, bids, asks [][2]string) *obDomain.Snapshot {
	t.Helper()
	conv := func(raw [][2]string) []obDomain.PriceLevel {
		out := make([]obDomain.PriceLevel, 0, len(raw))
		for _, r := range raw {
			lvl, err := obDomain.NewPriceLevel(r[0], r[1])
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, lvl)
		}
		return out
	}
	return obDomain.NewSnapshot(venue, "BTC/USDT", conv(bids), conv(asks), obDomain.DefaultDepth, time.Now())
}

type fakeVenues struct {
	venues  []obDomain.Venue
	initErr error

	mu     sync.Mutex
	closed bool
}

func (f *fakeVenues) Initialize(context.Context) error { return f.initErr }
func (f *fakeVenues) Venues() []obDomain.Venue         { return f.venues }
func (f *fakeVenues) Clients() []obApp.VenueClient     { return nil }
func (f *fakeVenues) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeVenues) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeFetcher returns fn(call) for the nth FetchAll call, counted from 1.
type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	depth int
	fn    func(ctx context.Context, call int) map[string]obApp.FetchResult
}

func (f *fakeFetcher) FetchAll(ctx context.Context, _ []obApp.VenueClient, _ string, depth int) map[string]obApp.FetchResult {
	f.mu.Lock()
	f.calls++
	f.depth = depth
	call := f.calls
	f.mu.Unlock()
	return f.fn(ctx, call)
}

type recordingReporter struct {
	mu       sync.Mutex
	outcomes []CycleOutcome
	times    []time.Time
	started  bool
	stopped  bool
	onReport func(n int)
}

func (r *recordingReporter) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *recordingReporter) Report(o CycleOutcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.times = append(r.times, time.Now())
	n := len(r.outcomes)
	r.mu.Unlock()
	if r.onReport != nil {
		r.onReport(n)
	}
}

func (r *recordingReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func (r *recordingReporter) snapshot() ([]CycleOutcome, []time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CycleOutcome(nil), r.outcomes...), append([]time.Time(nil), r.times...), r.stopped
}

// runScanner runs s until it returns or the test deadline passes.
func runScanner(t *testing.T, ctx context.Context, s *Scanner) error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("scanner did not stop")
		return nil
	}
}
