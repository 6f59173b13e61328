package domain

import (
	"github.com/shopspring/decimal"

	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
)

// VenueQuotes holds one venue's buy and sell execution quotes for a cycle.
type VenueQuotes struct {
	Venue obDomain.Venue
	Buy   obDomain.ExecutionQuote // walked over asks
	Sell  obDomain.ExecutionQuote // walked over bids
}

// DirectionResult is the evaluated spread of one direction. Available is
// false when either leg lacked depth for the notional; prices are then zero.
type DirectionResult struct {
	Direction    Direction
	Notional     decimal.Decimal
	Available    bool
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
	NetBuyPrice  decimal.Decimal
	NetSellPrice decimal.Decimal
	ProfitPct    decimal.Decimal
}

// Evaluation is the outcome of evaluating every direction of a cycle.
type Evaluation struct {
	// Directions in evaluation order.
	Directions []DirectionResult
	// Best is the highest net spread among available directions, possibly
	// negative. Nil when no direction was available.
	Best *DirectionResult
	// Qualifies reports whether Best exceeded the threshold.
	Qualifies bool
}

// Unavailable reports whether no direction had sufficient depth on both legs.
func (e Evaluation) Unavailable() bool {
	return e.Best == nil
}

// EvaluateDirection nets both legs' fees and computes the profit percentage.
func EvaluateDirection(buy, sell VenueQuotes) DirectionResult {
	r := DirectionResult{
		Direction: Direction{BuyVenue: buy.Venue.ID, SellVenue: sell.Venue.ID},
		Notional:  buy.Buy.Notional,
	}
	if !buy.Buy.Sufficient || !sell.Sell.Sufficient {
		return r
	}

	r.Available = true
	r.BuyPrice = buy.Buy.Price
	r.SellPrice = sell.Sell.Price
	r.NetBuyPrice = NetBuyPrice(buy.Buy.Price, buy.Venue.FeeRate)
	r.NetSellPrice = NetSellPrice(sell.Sell.Price, sell.Venue.FeeRate)
	r.ProfitPct = NetProfitPct(r.NetBuyPrice, r.NetSellPrice)
	return r
}

// Evaluate checks every unordered venue pair in the given order, the forward
// direction (buy on the earlier venue) before the reverse. A later direction
// replaces the best only when strictly greater, so ties keep the first.
// The best qualifies only when its profit exceeds threshold (percent).
func Evaluate(quotes []VenueQuotes, threshold decimal.Decimal) Evaluation {
	var e Evaluation
	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			e.Directions = append(e.Directions,
				EvaluateDirection(quotes[i], quotes[j]),
				EvaluateDirection(quotes[j], quotes[i]),
			)
		}
	}

	for i := range e.Directions {
		r := &e.Directions[i]
		if !r.Available {
			continue
		}
		if e.Best == nil || r.ProfitPct.GreaterThan(e.Best.ProfitPct) {
			e.Best = r
		}
	}

	e.Qualifies = e.Best != nil && e.Best.ProfitPct.GreaterThan(threshold)
	return e
}
