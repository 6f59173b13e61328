package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ScanStatus is the scanner's run state for the status bar.
type ScanStatus struct {
	Symbol    string
	Notional  string
	Threshold string
	Cadence   time.Duration
	Simulate  bool
	Running   bool
	Paused    bool
	LastCycle time.Time
}

// StatusComponent renders the status bar.
type StatusComponent struct {
	status ScanStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces the status.
func (s *StatusComponent) Update(status ScanStatus) {
	s.status = status
}

// Status returns the current status.
func (s *StatusComponent) Status() ScanStatus {
	return s.status
}

// View renders the status component.
func (s *StatusComponent) View() string {
	runningStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	stoppedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	pausedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var parts []string
	switch {
	case s.status.Paused:
		parts = append(parts, pausedStyle.Render("⏸ PAUSED"))
	case s.status.Running:
		parts = append(parts, runningStyle.Render("● SCANNING"))
	default:
		parts = append(parts, stoppedStyle.Render("○ STOPPED"))
	}

	parts = append(parts,
		s.status.Symbol,
		"Notional: $"+s.status.Notional,
		"Threshold: "+s.status.Threshold+"%",
		"Cadence: "+s.status.Cadence.String(),
	)
	if s.status.Simulate {
		parts = append(parts, pausedStyle.Render("SIMULATION"))
	}
	if !s.status.LastCycle.IsZero() {
		ago := time.Since(s.status.LastCycle).Round(100 * time.Millisecond)
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}
	return strings.Join(parts, "  │  ")
}
