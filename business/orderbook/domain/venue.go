package domain

import "github.com/shopspring/decimal"

// Venue is an exchange the scanner reads depth from. Values are fixed once
// the registry finishes initializing.
type Venue struct {
	ID        string
	FeeRate   decimal.Decimal
	Reachable bool
}
