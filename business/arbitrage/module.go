// Package arbitrage implements the detection bounded context: the scan
// loop, the opportunity evaluator and the reporters.
package arbitrage

import (
	"context"
	"os"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	arbDI "github.com/fd1az/arbitrage-scanner/business/arbitrage/di"
	"github.com/fd1az/arbitrage-scanner/business/arbitrage/infra"
	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
	obDI "github.com/fd1az/arbitrage-scanner/business/orderbook/di"
	"github.com/fd1az/arbitrage-scanner/internal/config"
	"github.com/fd1az/arbitrage-scanner/internal/di"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbDI.Strategy, func(sr di.ServiceRegistry) app.Strategy {
		return app.CrossVenueStrategy{}
	})

	// Nil when simulation is disabled
	di.RegisterToken(c, arbDI.Injector, func(sr di.ServiceRegistry) *app.Injector {
		cfg := sr.Get("config").(*config.Config)
		injector, err := NewInjector(cfg)
		if err != nil {
			panic("failed to create anomaly injector: " + err.Error())
		}
		return injector
	})

	di.RegisterToken(c, arbDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		banner := NewBanner(cfg)
		if cfg.App.TUIMode {
			return infra.NewTUIReporter(banner, nil)
		}
		return infra.NewConsoleReporter(os.Stdout, banner)
	})

	di.RegisterToken(c, arbDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewScanner(
			app.ScannerConfig{
				Symbol:    cfg.Scan.Symbol,
				Notional:  cfg.Scan.NotionalDecimal(),
				Threshold: cfg.Scan.ThresholdDecimal(),
				Depth:     cfg.Scan.Depth,
				Cadence:   cfg.Scan.Cadence,
				AlertHold: cfg.Scan.AlertHold,
			},
			log,
			obDI.GetRegistry(sr),
			obDI.GetPoller(sr),
			arbDI.GetStrategy(sr),
			arbDI.GetReporter(sr),
			arbDI.GetInjector(sr),
		)
	})

	return nil
}

// Startup resolves the scanner so wiring errors surface before the run.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	scanner := arbDI.GetScanner(mono.Services())
	st := scanner.State()

	mono.Logger().Info(ctx, "arbitrage module started",
		"strategy", arbDI.GetStrategy(mono.Services()).Name(),
		"symbol", st.Symbol,
		"simulate", st.Simulate,
	)
	return nil
}

// NewInjector builds the anomaly injector from the simulation settings.
// It returns nil, nil when simulation is off.
func NewInjector(cfg *config.Config) (*app.Injector, error) {
	sim := cfg.Simulation
	if !sim.Enabled {
		return nil, nil
	}
	side, _ := obDomain.ParseBookSide(sim.Side)
	return app.NewInjector(app.InjectorConfig{
		Period:         sim.Period,
		TargetVenue:    sim.TargetVenue,
		ReferenceVenue: sim.ReferenceVenue,
		Side:           side,
		Factor:         sim.FactorDecimal(),
		Quantity:       sim.QuantityDecimal(),
	})
}

// NewBanner describes the configured run for the reporters.
func NewBanner(cfg *config.Config) infra.Banner {
	venues := make([]string, 0, len(cfg.Venues))
	for _, vc := range cfg.Venues {
		venues = append(venues, vc.ID)
	}
	return infra.Banner{
		Symbol:    cfg.Scan.Symbol,
		Venues:    venues,
		Notional:  cfg.Scan.NotionalDecimal(),
		Threshold: cfg.Scan.ThresholdDecimal(),
		Cadence:   cfg.Scan.Cadence,
		Simulate:  cfg.Simulation.Enabled,
	}
}
