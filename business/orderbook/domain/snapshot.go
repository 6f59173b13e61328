// Package domain contains the core domain types for the orderbook context:
// normalized depth snapshots and the depth walker that prices a notional
// against them.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDepth is the number of levels requested and retained per side.
const DefaultDepth = 5

// BookSide selects one side of an order book.
type BookSide string

const (
	Bids BookSide = "bids"
	Asks BookSide = "asks"
)

// ParseBookSide maps "bids"/"asks"; anything else reports false.
func ParseBookSide(s string) (BookSide, bool) {
	switch BookSide(s) {
	case Bids, Asks:
		return BookSide(s), true
	default:
		return "", false
	}
}

// PriceLevel is one price point of a book side.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// NewPriceLevel builds a level from decimal strings, as venues send them.
func NewPriceLevel(price, qty string) (PriceLevel, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return PriceLevel{}, err
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return PriceLevel{}, err
	}
	return PriceLevel{Price: p, Quantity: q}, nil
}

// Cost is price times quantity.
func (l PriceLevel) Cost() decimal.Decimal {
	return l.Price.Mul(l.Quantity)
}

// Snapshot is one venue's book for one symbol at one instant. Bids are
// sorted descending, asks ascending. Snapshots are never mutated; the next
// poll supersedes them.
type Snapshot struct {
	Venue     string
	Symbol    string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// NewSnapshot keeps at most depth levels per side.
func NewSnapshot(venue, symbol string, bids, asks []PriceLevel, depth int, ts time.Time) *Snapshot {
	return &Snapshot{
		Venue:     venue,
		Symbol:    symbol,
		Bids:      truncate(bids, depth),
		Asks:      truncate(asks, depth),
		Timestamp: ts,
	}
}

func truncate(levels []PriceLevel, depth int) []PriceLevel {
	if depth > 0 && len(levels) > depth {
		levels = levels[:depth]
	}
	out := make([]PriceLevel, len(levels))
	copy(out, levels)
	return out
}

// Usable reports whether both sides carry at least one level.
func (s *Snapshot) Usable() bool {
	return s != nil && len(s.Bids) > 0 && len(s.Asks) > 0
}

// Side returns the levels of one side.
func (s *Snapshot) Side(side BookSide) []PriceLevel {
	if side == Bids {
		return s.Bids
	}
	return s.Asks
}

// BestBid returns the highest bid, false if the side is empty.
func (s *Snapshot) BestBid() (PriceLevel, bool) {
	if len(s.Bids) == 0 {
		return PriceLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask, false if the side is empty.
func (s *Snapshot) BestAsk() (PriceLevel, bool) {
	if len(s.Asks) == 0 {
		return PriceLevel{}, false
	}
	return s.Asks[0], true
}

// WithTopLevel returns a copy whose first level on side is replaced by
// level. The receiver is left untouched. An empty side gains the level.
func (s *Snapshot) WithTopLevel(side BookSide, level PriceLevel) *Snapshot {
	cp := *s
	cp.Bids = append([]PriceLevel(nil), s.Bids...)
	cp.Asks = append([]PriceLevel(nil), s.Asks...)

	target := &cp.Asks
	if side == Bids {
		target = &cp.Bids
	}
	if len(*target) == 0 {
		*target = []PriceLevel{level}
	} else {
		(*target)[0] = level
	}
	return &cp
}

// Age is the time since capture.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}
