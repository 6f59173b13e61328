// Package domain contains the core domain types for the arbitrage context.
package domain

// Direction is an ordered venue pair: buy on one, sell on the other.
type Direction struct {
	BuyVenue  string
	SellVenue string
}

// Reverse returns the opposite direction over the same pair.
func (d Direction) Reverse() Direction {
	return Direction{BuyVenue: d.SellVenue, SellVenue: d.BuyVenue}
}

// String returns a human-readable description of the direction.
func (d Direction) String() string {
	return "Buy on " + d.BuyVenue + ", Sell on " + d.SellVenue
}

// ShortString returns a compact form for tables, e.g. "binance→kraken".
func (d Direction) ShortString() string {
	return d.BuyVenue + "→" + d.SellVenue
}
