// Package di contains dependency injection tokens for the orderbook context.
package di

import (
	"github.com/fd1az/arbitrage-scanner/business/orderbook/app"
	"github.com/fd1az/arbitrage-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Registry = di.NewToken[*app.Registry]("orderbook.Registry")
	Poller   = di.NewToken[*app.Poller]("orderbook.Poller")
)

// Private dependency tokens - internal to orderbook module
var (
	VenueClients = di.NewToken[[]app.VenueClient]("orderbook:venueClients")
)

func GetRegistry(c di.ServiceRegistry) *app.Registry {
	return di.GetToken(c, Registry)
}

func GetPoller(c di.ServiceRegistry) *app.Poller {
	return di.GetToken(c, Poller)
}

func GetVenueClients(c di.ServiceRegistry) []app.VenueClient {
	return di.GetToken(c, VenueClients)
}
