package ui

import (
	"time"

	"github.com/fd1az/arbitrage-scanner/pkg/ui/components"
)

// Message types for TUI updates. Values arrive formatted; the UI does not
// calculate anything.

// ScanStartedMsg is sent once the scanner has its configuration.
type ScanStartedMsg struct {
	Symbol    string
	Venues    []string
	Notional  string
	Threshold string
	Cadence   time.Duration
	Simulate  bool
}

// CycleMsg is sent for every evaluated cycle.
type CycleMsg struct {
	Iteration      uint64
	Books          []components.BookRow
	Spread         string
	SpreadNegative bool
	Available      bool
	Latency        time.Duration
	Alert          *components.AlertRow
}

// StoppedMsg is sent when the scanner stops.
type StoppedMsg struct{}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
