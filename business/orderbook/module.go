// Package orderbook implements the market-data bounded context: venue
// clients, the venue registry and the concurrent depth poller.
package orderbook

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/arbitrage-scanner/business/orderbook/app"
	obDI "github.com/fd1az/arbitrage-scanner/business/orderbook/di"
	"github.com/fd1az/arbitrage-scanner/business/orderbook/infra/binance"
	"github.com/fd1az/arbitrage-scanner/business/orderbook/infra/kraken"
	"github.com/fd1az/arbitrage-scanner/internal/config"
	"github.com/fd1az/arbitrage-scanner/internal/di"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/monolith"
)

const (
	connectTimeout = 10 * time.Second
	streamSpeedMs  = 100
)

// Module implements the orderbook bounded context.
type Module struct{}

// RegisterServices registers all orderbook services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, obDI.VenueClients, func(sr di.ServiceRegistry) []app.VenueClient {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		clients, err := NewVenueClients(cfg, log)
		if err != nil {
			panic("failed to create venue clients: " + err.Error())
		}
		return clients
	})

	di.RegisterToken(c, obDI.Registry, func(sr di.ServiceRegistry) *app.Registry {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewRegistry(log, obDI.GetVenueClients(sr)...)
	})

	di.RegisterToken(c, obDI.Poller, func(sr di.ServiceRegistry) *app.Poller {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		rpm := make(map[string]int, len(cfg.Venues))
		for _, vc := range cfg.Venues {
			rpm[vc.ID] = vc.RequestsPerMinute
		}
		return app.NewPoller(log, app.PollerConfig{
			Timeout:           cfg.Scan.FetchTimeout,
			RequestsPerMinute: rpm,
		})
	})

	return nil
}

// Startup opens venue streams. Stream failures are not fatal, REST covers
// until the stream reconnects. The scanner initializes the registry.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	registry := obDI.GetRegistry(mono.Services())
	mono.OnClose(registry)

	for _, client := range registry.Clients() {
		connector, ok := client.(interface{ Connect(context.Context) error })
		if !ok {
			continue
		}
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := connector.Connect(connectCtx)
		cancel()
		if err != nil {
			log.Warn(ctx, "venue stream connection failed, serving REST until it recovers",
				"venue", client.ID(), "error", err)
		}
	}

	log.Info(ctx, "orderbook module started", "venues", len(registry.Clients()))
	return nil
}

// NewVenueClients builds one client per configured venue, in config order.
func NewVenueClients(cfg *config.Config, log logger.LoggerInterface) ([]app.VenueClient, error) {
	clients := make([]app.VenueClient, 0, len(cfg.Venues))
	for _, vc := range cfg.Venues {
		client, err := newVenueClient(vc, cfg.Scan, log)
		if err != nil {
			for _, c := range clients {
				c.Close()
			}
			return nil, fmt.Errorf("venue %s: %w", vc.ID, err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func newVenueClient(vc config.VenueConfig, scan config.ScanConfig, log logger.LoggerInterface) (app.VenueClient, error) {
	switch vc.Kind {
	case config.KindBinance:
		return binance.NewRESTClient(binanceREST(vc, scan), log)

	case config.KindBinanceWS:
		return binance.NewStreamClient(binance.StreamConfig{
			REST:         binanceREST(vc, scan),
			WebSocketURL: vc.WebSocketURL,
			Symbol:       scan.Symbol,
			Depth:        scan.Depth,
			SpeedMs:      streamSpeedMs,
			StaleTimeout: vc.StaleTimeout,
		}, log)

	case config.KindKraken:
		return kraken.NewClient(kraken.Config{
			ID:      vc.ID,
			BaseURL: vc.BaseURL,
			Symbol:  vc.Symbol,
			FeeRate: vc.FeeRateDecimal(),
			Timeout: scan.FetchTimeout,
		}, log)

	default:
		return nil, fmt.Errorf("unknown venue kind %q", vc.Kind)
	}
}

func binanceREST(vc config.VenueConfig, scan config.ScanConfig) binance.RESTConfig {
	return binance.RESTConfig{
		ID:      vc.ID,
		BaseURL: vc.BaseURL,
		Symbol:  vc.Symbol,
		FeeRate: vc.FeeRateDecimal(),
		Timeout: scan.FetchTimeout,
	}
}
