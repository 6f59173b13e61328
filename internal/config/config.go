// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

// Venue kinds understood by the orderbook module.
const (
	KindBinance   = "binance"
	KindBinanceWS = "binance_ws"
	KindKraken    = "kraken"
)

// MaxDepth caps the levels requested and retained per book side.
const MaxDepth = 5

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Venues     []VenueConfig    `mapstructure:"venues"`
	Health     HealthConfig     `mapstructure:"health"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// ScanConfig drives the scan loop.
type ScanConfig struct {
	Symbol       string        `mapstructure:"symbol"`
	Notional     float64       `mapstructure:"notional"`
	ThresholdPct float64       `mapstructure:"threshold_pct"`
	Cadence      time.Duration `mapstructure:"cadence"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	Depth        int           `mapstructure:"depth"`
	AlertHold    time.Duration `mapstructure:"alert_hold"`
}

// NotionalDecimal returns the trade notional as decimal.Decimal.
func (c *ScanConfig) NotionalDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Notional)
}

// ThresholdDecimal returns the profit threshold (percent) as decimal.Decimal.
func (c *ScanConfig) ThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.ThresholdPct)
}

// SimulationConfig controls synthetic anomaly injection.
type SimulationConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Period         uint64  `mapstructure:"period"`
	TargetVenue    string  `mapstructure:"target_venue"`
	ReferenceVenue string  `mapstructure:"reference_venue"`
	Side           string  `mapstructure:"side"`
	Factor         float64 `mapstructure:"factor"`
	Quantity       float64 `mapstructure:"quantity"`
}

// FactorDecimal returns the injection price factor as decimal.Decimal.
func (c *SimulationConfig) FactorDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Factor)
}

// QuantityDecimal returns the injected level quantity as decimal.Decimal.
func (c *SimulationConfig) QuantityDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Quantity)
}

// VenueConfig describes one public market-data venue.
type VenueConfig struct {
	ID                string        `mapstructure:"id"`
	Kind              string        `mapstructure:"kind"`
	FeeRate           float64       `mapstructure:"fee_rate"`
	BaseURL           string        `mapstructure:"base_url"`
	WebSocketURL      string        `mapstructure:"ws_url"`
	Symbol            string        `mapstructure:"symbol"` // venue-native override, e.g. XBTUSDT
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	StaleTimeout      time.Duration `mapstructure:"stale_timeout"`
}

// FeeRateDecimal returns the taker fee as decimal.Decimal.
func (c *VenueConfig) FeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FeeRate)
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"` // zipkin | console | otlp
	Endpoint       string `mapstructure:"endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SCAN_SCAN_NOTIONAL, SCAN_SIMULATION_ENABLED, ...
	v.SetEnvPrefix("SCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("failed to read config"),
				apperror.WithCause(err),
			)
		}
		// Config file not found is OK, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("failed to unmarshal config"),
			apperror.WithCause(err),
		)
	}

	cfg.applyVenueDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SCAN_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SCAN_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SCAN_LOG_LEVEL", "LOG_LEVEL")

	// Scan
	v.BindEnv("scan.symbol", "SCAN_SYMBOL")
	v.BindEnv("scan.notional", "SCAN_NOTIONAL")
	v.BindEnv("scan.threshold_pct", "SCAN_THRESHOLD_PCT")
	v.BindEnv("scan.cadence", "SCAN_CADENCE")

	// Simulation
	v.BindEnv("simulation.enabled", "SCAN_SIMULATE")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SCAN_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SCAN_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.endpoint", "SCAN_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "scanner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Scan defaults
	v.SetDefault("scan.symbol", "BTC/USDT")
	v.SetDefault("scan.notional", 1000)
	v.SetDefault("scan.threshold_pct", 0.05)
	v.SetDefault("scan.cadence", "500ms")
	v.SetDefault("scan.fetch_timeout", "2s")
	v.SetDefault("scan.depth", 5)
	v.SetDefault("scan.alert_hold", "0s")

	// Simulation defaults; empty venue ids resolve to venues[1] / venues[0]
	v.SetDefault("simulation.enabled", false)
	v.SetDefault("simulation.period", 10)
	v.SetDefault("simulation.side", "asks")
	v.SetDefault("simulation.factor", 0.99)
	v.SetDefault("simulation.quantity", 5)

	// Venue defaults
	v.SetDefault("venues", []map[string]any{
		{"id": "binance", "kind": KindBinance, "fee_rate": 0.001},
		{"id": "kraken", "kind": KindKraken, "fee_rate": 0.001},
	})

	// Health defaults
	v.SetDefault("health.port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arbitrage-scanner")
	v.SetDefault("telemetry.exporter", "console")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// applyVenueDefaults fills per-kind endpoints and resolves the simulation
// target/reference venues.
func (c *Config) applyVenueDefaults() {
	for i := range c.Venues {
		vc := &c.Venues[i]
		if vc.ID == "" {
			vc.ID = vc.Kind
		}
		switch vc.Kind {
		case KindBinance, KindBinanceWS:
			if vc.BaseURL == "" {
				vc.BaseURL = "https://api.binance.com"
			}
			if vc.WebSocketURL == "" {
				vc.WebSocketURL = "wss://stream.binance.com:9443"
			}
			if vc.RequestsPerMinute == 0 {
				vc.RequestsPerMinute = 1200
			}
		case KindKraken:
			if vc.BaseURL == "" {
				vc.BaseURL = "https://api.kraken.com"
			}
			if vc.RequestsPerMinute == 0 {
				vc.RequestsPerMinute = 60
			}
		}
		if vc.StaleTimeout == 0 {
			vc.StaleTimeout = 5 * time.Second
		}
	}

	if len(c.Venues) >= 2 {
		if c.Simulation.TargetVenue == "" {
			c.Simulation.TargetVenue = c.Venues[1].ID
		}
		if c.Simulation.ReferenceVenue == "" {
			c.Simulation.ReferenceVenue = c.Venues[0].ID
		}
	}
}

// Validate validates the configuration. Every failure is a
// CONFIGURATION_ERROR, which is fatal at startup.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return apperror.Configuration(fmt.Sprintf(format, args...))
	}

	if c.Scan.Symbol == "" || !strings.Contains(c.Scan.Symbol, "/") {
		return fail("scan.symbol must look like BASE/QUOTE, got %q", c.Scan.Symbol)
	}
	if c.Scan.Notional <= 0 {
		return fail("scan.notional must be positive, got %v", c.Scan.Notional)
	}
	if c.Scan.ThresholdPct <= 0 {
		return fail("scan.threshold_pct must be positive, got %v", c.Scan.ThresholdPct)
	}
	if c.Scan.Cadence <= 0 {
		return fail("scan.cadence must be positive, got %v", c.Scan.Cadence)
	}
	if c.Scan.FetchTimeout <= 0 {
		return fail("scan.fetch_timeout must be positive, got %v", c.Scan.FetchTimeout)
	}
	if c.Scan.Depth <= 0 {
		return fail("scan.depth must be positive, got %d", c.Scan.Depth)
	}
	if c.Scan.Depth > MaxDepth {
		return fail("scan.depth must be at most %d, got %d", MaxDepth, c.Scan.Depth)
	}
	if c.Scan.AlertHold < 0 {
		return fail("scan.alert_hold cannot be negative")
	}

	if len(c.Venues) < 2 {
		return fail("at least two venues are required, got %d", len(c.Venues))
	}
	seen := make(map[string]bool, len(c.Venues))
	for _, vc := range c.Venues {
		switch vc.Kind {
		case KindBinance, KindBinanceWS, KindKraken:
		default:
			return fail("venue %q has unknown kind %q", vc.ID, vc.Kind)
		}
		if seen[vc.ID] {
			return fail("duplicate venue id %q", vc.ID)
		}
		seen[vc.ID] = true
		if vc.FeeRate < 0 || vc.FeeRate >= 1 {
			return fail("venue %q fee_rate must be in [0, 1), got %v", vc.ID, vc.FeeRate)
		}
	}

	if c.Simulation.Enabled {
		s := c.Simulation
		if s.Period == 0 {
			return fail("simulation.period must be positive")
		}
		if s.Side != "asks" && s.Side != "bids" {
			return fail("simulation.side must be asks or bids, got %q", s.Side)
		}
		if s.Factor <= 0 || s.Quantity <= 0 {
			return fail("simulation.factor and simulation.quantity must be positive")
		}
		if !seen[s.TargetVenue] || !seen[s.ReferenceVenue] {
			return fail("simulation venues %q/%q must be configured venues", s.TargetVenue, s.ReferenceVenue)
		}
	}

	return nil
}
