// Package app contains the scan loop, the evaluation strategy, the anomaly
// injector and the ports they depend on.
package app

import (
	"context"

	obApp "github.com/fd1az/arbitrage-scanner/business/orderbook/app"
	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
)

// Reporter renders cycle outcomes.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report renders one evaluated cycle: a status line, or an alert when
	// the outcome carries an opportunity.
	Report(outcome CycleOutcome)

	// Stop flushes and releases the output.
	Stop() error
}

// VenueSource owns the venue set. The orderbook Registry implements it.
type VenueSource interface {
	Initialize(ctx context.Context) error
	Venues() []obDomain.Venue
	Clients() []obApp.VenueClient
	Close() error
}

// BookFetcher polls every venue concurrently. The orderbook Poller
// implements it.
type BookFetcher interface {
	FetchAll(ctx context.Context, venues []obApp.VenueClient, symbol string, depth int) map[string]obApp.FetchResult
}

var (
	_ VenueSource = (*obApp.Registry)(nil)
	_ BookFetcher = (*obApp.Poller)(nil)
)
