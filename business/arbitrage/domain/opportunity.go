package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is a direction whose fee-adjusted spread cleared the threshold.
type Opportunity struct {
	ID              string
	Iteration       uint64
	DetectedAt      time.Time
	Symbol          string
	Direction       Direction
	Notional        decimal.Decimal
	BuyPrice        decimal.Decimal // depth-weighted, before fees
	SellPrice       decimal.Decimal
	NetBuyPrice     decimal.Decimal
	NetSellPrice    decimal.Decimal
	ProfitPct       decimal.Decimal // percent, e.g. 0.79 for 0.79%
	EstimatedProfit decimal.Decimal // quote currency
	Simulated       bool            // the cycle carried an injected level
}

// NewOpportunity builds an opportunity from a qualifying direction result.
func NewOpportunity(r DirectionResult, symbol string, iteration uint64, at time.Time) *Opportunity {
	return &Opportunity{
		ID:              fmt.Sprintf("%d-%s", iteration, r.Direction.ShortString()),
		Iteration:       iteration,
		DetectedAt:      at,
		Symbol:          symbol,
		Direction:       r.Direction,
		Notional:        r.Notional,
		BuyPrice:        r.BuyPrice,
		SellPrice:       r.SellPrice,
		NetBuyPrice:     r.NetBuyPrice,
		NetSellPrice:    r.NetSellPrice,
		ProfitPct:       r.ProfitPct,
		EstimatedProfit: EstimatedProfit(r.Notional, r.ProfitPct),
	}
}
