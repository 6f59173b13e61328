package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
)

type fakeVenue struct {
	id        string
	err       error
	delay     time.Duration
	ignoreCtx bool
	fee       decimal.Decimal
	feeErr    error
	pingErr   error
	closeErr  error
	panics    bool

	calls  atomic.Int32
	closed atomic.Bool
}

func newFakeVenue(id string) *fakeVenue {
	return &fakeVenue{id: id, fee: decimal.RequireFromString("0.001")}
}

func (f *fakeVenue) ID() string { return f.id }

func (f *fakeVenue) FetchOrderBook(ctx context.Context, symbol string, depth int) (*domain.Snapshot, error) {
	f.calls.Add(1)
	if f.panics {
		var levels []domain.PriceLevel
		_ = levels[3]
	}
	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	bid, _ := domain.NewPriceLevel("100", "1")
	ask, _ := domain.NewPriceLevel("101", "1")
	return domain.NewSnapshot(f.id, symbol, []domain.PriceLevel{bid}, []domain.PriceLevel{ask}, depth, time.Now()), nil
}

func (f *fakeVenue) FetchFeeRate(context.Context) (decimal.Decimal, error) {
	return f.fee, f.feeErr
}

func (f *fakeVenue) Ping(context.Context) error { return f.pingErr }

func (f *fakeVenue) Close() error {
	f.closed.Store(true)
	return f.closeErr
}
