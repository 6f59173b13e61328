package arbitrage

import (
	"context"
	"testing"
	"time"

	arbDI "github.com/fd1az/arbitrage-scanner/business/arbitrage/di"
	"github.com/fd1az/arbitrage-scanner/business/arbitrage/infra"
	"github.com/fd1az/arbitrage-scanner/business/orderbook"
	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/config"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/monolith"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "scanner", TUIMode: true},
		Scan: config.ScanConfig{
			Symbol:       "BTC/USDT",
			Notional:     1000,
			ThresholdPct: 0.05,
			Cadence:      500 * time.Millisecond,
			FetchTimeout: time.Second,
			Depth:        5,
		},
		Simulation: config.SimulationConfig{
			Enabled:        true,
			Period:         10,
			TargetVenue:    "kraken",
			ReferenceVenue: "binance",
			Side:           "asks",
			Factor:         0.99,
			Quantity:       5,
		},
		Venues: []config.VenueConfig{
			{ID: "binance", Kind: config.KindBinance, FeeRate: 0.001, BaseURL: "http://127.0.0.1:1"},
			{ID: "kraken", Kind: config.KindKraken, FeeRate: 0.0026, BaseURL: "http://127.0.0.1:1"},
		},
	}
}

func TestNewInjector(t *testing.T) {
	cfg := testConfig()

	injector, err := NewInjector(cfg)
	if err != nil {
		t.Fatalf("NewInjector: %v", err)
	}
	got := injector.Config()
	if got.Side != obDomain.Asks || got.Period != 10 || got.TargetVenue != "kraken" {
		t.Errorf("config = %+v", got)
	}

	cfg.Simulation.Enabled = false
	if injector, err := NewInjector(cfg); injector != nil || err != nil {
		t.Errorf("disabled simulation = %v, %v", injector, err)
	}

	cfg.Simulation.Enabled = true
	cfg.Simulation.ReferenceVenue = "kraken"
	if _, err := NewInjector(cfg); !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("same target and reference: err = %v", err)
	}
}

func TestNewBanner(t *testing.T) {
	b := NewBanner(testConfig())
	if b.Symbol != "BTC/USDT" || len(b.Venues) != 2 || b.Venues[1] != "kraken" || !b.Simulate {
		t.Errorf("banner = %+v", b)
	}
	if b.Notional.String() != "1000" || b.Threshold.String() != "0.05" {
		t.Errorf("notional/threshold = %s/%s", b.Notional, b.Threshold)
	}
}

func TestModule_Wiring(t *testing.T) {
	mono := monolith.New(testConfig(), logger.NewDiscard())
	defer mono.Close()

	modules := []monolith.Module{&orderbook.Module{}, &Module{}}
	if err := mono.RegisterModules(modules...); err != nil {
		t.Fatalf("RegisterModules: %v", err)
	}
	if err := mono.StartModules(context.Background(), modules...); err != nil {
		t.Fatalf("StartModules: %v", err)
	}

	if _, ok := arbDI.GetReporter(mono.Services()).(*infra.TUIReporter); !ok {
		t.Errorf("reporter = %T, want TUI reporter in TUI mode", arbDI.GetReporter(mono.Services()))
	}

	st := arbDI.GetScanner(mono.Services()).State()
	if !st.Simulate || st.Symbol != "BTC/USDT" || st.Iteration != 0 {
		t.Errorf("state = %+v", st)
	}
}
