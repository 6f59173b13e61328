package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

// TradeSide is the taker direction a quote is computed for.
type TradeSide string

const (
	Buying  TradeSide = "buying"  // walks asks
	Selling TradeSide = "selling" // walks bids
)

// BookSide returns the side of the book a taker in this direction consumes.
func (t TradeSide) BookSide() BookSide {
	if t == Buying {
		return Asks
	}
	return Bids
}

// Fill is the outcome of walking a book side for a notional. When
// Sufficient is false the book could not absorb the notional and Price is zero.
type Fill struct {
	Price          decimal.Decimal
	FilledQty      decimal.Decimal
	WeightedCost   decimal.Decimal
	LevelsConsumed int
	Sufficient     bool
}

// WeightedPrice walks levels in the order given, consuming quote-currency
// notional until it is spent, and returns the depth-weighted average price.
// Running out of levels is a normal outcome reported as an insufficient fill;
// only a non-positive notional is an error.
func WeightedPrice(levels []PriceLevel, notional decimal.Decimal) (Fill, error) {
	if !notional.IsPositive() {
		return Fill{}, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithContext("notional must be positive, got "+notional.String()))
	}

	remaining := notional
	filled := decimal.Zero
	cost := decimal.Zero
	consumed := 0

	for _, lvl := range levels {
		if !lvl.Quantity.IsPositive() || !lvl.Price.IsPositive() {
			continue
		}
		consumed++

		levelCost := lvl.Cost()
		if levelCost.GreaterThanOrEqual(remaining) {
			filled = filled.Add(remaining.Div(lvl.Price))
			cost = cost.Add(remaining)
			remaining = decimal.Zero
			break
		}

		filled = filled.Add(lvl.Quantity)
		cost = cost.Add(levelCost)
		remaining = remaining.Sub(levelCost)
	}

	if remaining.IsPositive() {
		return Fill{
			FilledQty:      filled,
			WeightedCost:   cost,
			LevelsConsumed: consumed,
		}, nil
	}

	return Fill{
		Price:          cost.Div(filled),
		FilledQty:      filled,
		WeightedCost:   cost,
		LevelsConsumed: consumed,
		Sufficient:     true,
	}, nil
}

// ExecutionQuote is the price a taker would get on one venue for one
// direction this cycle.
type ExecutionQuote struct {
	Venue      string
	Side       TradeSide
	Notional   decimal.Decimal
	Price      decimal.Decimal
	FilledQty  decimal.Decimal
	Sufficient bool
}

// Quote walks the side of s that a taker in direction side consumes.
func (s *Snapshot) Quote(side TradeSide, notional decimal.Decimal) (ExecutionQuote, error) {
	fill, err := WeightedPrice(s.Side(side.BookSide()), notional)
	if err != nil {
		return ExecutionQuote{}, err
	}
	return ExecutionQuote{
		Venue:      s.Venue,
		Side:       side,
		Notional:   notional,
		Price:      fill.Price,
		FilledQty:  fill.FilledQty,
		Sufficient: fill.Sufficient,
	}, nil
}
