// Package main is the entry point for the cross-venue depth scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage"
	arbitrageApp "github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/arbitrage-scanner/business/arbitrage/di"
	"github.com/fd1az/arbitrage-scanner/business/orderbook"
	orderbookDI "github.com/fd1az/arbitrage-scanner/business/orderbook/di"
	"github.com/fd1az/arbitrage-scanner/internal/apm"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/config"
	"github.com/fd1az/arbitrage-scanner/internal/health"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/metrics"
	"github.com/fd1az/arbitrage-scanner/internal/monolith"
	"github.com/fd1az/arbitrage-scanner/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath string
	simulate   bool
	asset      string
	tuiMode    bool
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	simulate := flag.Bool("simulate", false, "Inject a synthetic crossed book every simulation.period cycles")
	asset := flag.String("asset", "", "Base asset to scan against USDT, e.g. ETH (overrides scan.symbol)")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with a status line and logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("scanner %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	opts := options{
		configPath: *configPath,
		simulate:   *simulate,
		asset:      *asset,
		tuiMode:    !*cliMode,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !opts.tuiMode {
			fmt.Fprintf(os.Stderr, "\nreceived shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, cancel, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if apperror.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}

	var log *logger.Logger
	if cfg.App.TUIMode {
		// The dashboard owns the terminal
		log = logger.New(io.Discard, logger.LevelError, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
		log.Info(ctx, "starting depth scanner",
			"version", version,
			"environment", cfg.App.Environment,
			"symbol", cfg.Scan.Symbol,
		)
	}

	shutdownTelemetry := setupTelemetry(ctx, cfg, log)
	defer shutdownTelemetry()

	mono := monolith.New(cfg, log)
	defer mono.Close()

	modules := []monolith.Module{
		&orderbook.Module{}, // venue clients, registry, poller
		&arbitrage.Module{}, // scanner, depends on orderbook
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	healthServer.Start()
	log.Info(ctx, "health server started", "port", cfg.Health.Port)
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		healthServer.Stop(stopCtx)
	}()

	start := func() (*arbitrageApp.Scanner, error) {
		if err := mono.StartModules(ctx, modules...); err != nil {
			return nil, fmt.Errorf("failed to start modules: %w", err)
		}
		scanner := arbitrageDI.GetScanner(mono.Services())
		registry := orderbookDI.GetRegistry(mono.Services())

		healthServer.RegisterCheck("scanner", scanner.HealthCheck(staleAfter(cfg)))
		healthServer.RegisterCheck("venues", func(context.Context) (bool, string) {
			if !registry.Initialized() {
				return false, "venue registry not initialized"
			}
			return true, strconv.Itoa(len(registry.Venues())) + " venues"
		})
		return scanner, nil
	}

	if cfg.App.TUIMode {
		return runTUI(ctx, cancel, start)
	}
	return runCLI(ctx, start, log)
}

// applyFlags layers command-line overrides on top of the loaded config.
func applyFlags(cfg *config.Config, opts options) error {
	cfg.App.TUIMode = opts.tuiMode
	if opts.simulate {
		cfg.Simulation.Enabled = true
	}
	if opts.asset != "" {
		_, quote, _ := strings.Cut(cfg.Scan.Symbol, "/")
		if quote == "" {
			quote = "USDT"
		}
		cfg.Scan.Symbol = strings.ToUpper(opts.asset) + "/" + quote
	}
	return cfg.Validate()
}

// staleAfter is how long the scanner may go without a reported cycle
// before /health turns unhealthy.
func staleAfter(cfg *config.Config) time.Duration {
	return max(10*cfg.Scan.Cadence, 5*cfg.Scan.FetchTimeout) + cfg.Scan.AlertHold
}

// setupTelemetry installs tracing and metrics when enabled and returns the
// matching shutdown func.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}
	tel := cfg.Telemetry

	traceProvider := apm.NewTraceProvider(log,
		apm.WithProvider(apm.ParseProvider(tel.Exporter)),
		apm.WithEndpoint(tel.Endpoint),
		apm.WithHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		apm.WithServiceName(tel.ServiceName),
	)
	log.Info(ctx, "tracing initialized", "provider", tel.Exporter, "endpoint", tel.Endpoint)

	metricOpts := []metrics.OptionFn{
		metrics.WithServiceName(tel.ServiceName),
		metrics.WithProviderConfig(metrics.NewPrometheusConfig(nil)),
	}
	if apm.ParseProvider(tel.Exporter) == apm.OTLPGRPCProvider && tel.Endpoint != "" {
		insecure := strings.HasPrefix(tel.Endpoint, "http://")
		metricOpts = append(metricOpts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(tel.Endpoint, nil, insecure)))
	}
	meterProvider, err := metrics.NewMetricProvider(metricOpts...)
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	}

	port := tel.PrometheusPort
	if port == 0 {
		port = 9090
	}
	promServer := metrics.NewPromServer(log, metrics.WithPort(strconv.Itoa(port)))
	promServer.Start()

	return func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		promServer.Stop(stopCtx)
		if meterProvider != nil {
			meterProvider.Shutdown(stopCtx)
		}
		traceProvider.Stop()
	}
}

func runCLI(ctx context.Context, start func() (*arbitrageApp.Scanner, error), log *logger.Logger) error {
	scanner, err := start()
	if err != nil {
		return err
	}
	log.Info(ctx, "all modules started, beginning scan")

	// Blocks until ctx is cancelled or initialization fails
	if err := scanner.Run(ctx); err != nil {
		return err
	}

	log.Info(ctx, "shutting down", "iterations", scanner.Iteration())
	return nil
}

func runTUI(ctx context.Context, cancel context.CancelFunc, start func() (*arbitrageApp.Scanner, error)) error {
	// Welcome screen signals when modules should start
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		scanner, err := start()
		if err == nil {
			err = scanner.Run(ctx)
		}
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			if apperror.IsFatal(err) {
				p.Quit()
			}
		}
		errCh <- err
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		return fmt.Errorf("TUI error: %w", err)
	}

	// Quitting the dashboard stops the scanner
	cancel()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		return nil
	}
}
