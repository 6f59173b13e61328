// Package app contains the venue ports, the venue registry and the
// concurrent depth poller for the orderbook context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
)

// VenueClient is a public market-data connection to one venue.
type VenueClient interface {
	// ID is the registry key, e.g. "binance".
	ID() string

	// FetchOrderBook returns the top depth levels per side for symbol
	// (BASE/QUOTE form; the client maps it to the venue's own notation).
	FetchOrderBook(ctx context.Context, symbol string, depth int) (*domain.Snapshot, error)

	// FetchFeeRate returns the taker fee as a fraction, e.g. 0.001.
	FetchFeeRate(ctx context.Context) (decimal.Decimal, error)

	// Close releases connections held by the client.
	Close() error
}

// Pinger is implemented by clients that can cheaply probe reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
