package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AlertRow represents an opportunity in the list.
type AlertRow struct {
	Time      string
	Iteration uint64
	Direction string
	BuyPrice  string
	SellPrice string
	ProfitPct string
	EstProfit string
	Simulated bool
}

// AlertsComponent renders the most recent opportunities, newest first.
type AlertsComponent struct {
	rows    []AlertRow
	maxRows int
	offset  int
	visible int
}

// NewAlertsComponent creates a new alerts component.
func NewAlertsComponent(maxRows, visible int) *AlertsComponent {
	return &AlertsComponent{maxRows: maxRows, visible: visible}
}

// Add adds a new alert to the top of the list.
func (a *AlertsComponent) Add(row AlertRow) {
	a.rows = append([]AlertRow{row}, a.rows...)
	if len(a.rows) > a.maxRows {
		a.rows = a.rows[:a.maxRows]
	}
	a.offset = 0
}

// Clear clears all alerts.
func (a *AlertsComponent) Clear() {
	a.rows = nil
	a.offset = 0
}

// Len returns the number of stored alerts.
func (a *AlertsComponent) Len() int {
	return len(a.rows)
}

// ScrollUp moves the window toward newer alerts.
func (a *AlertsComponent) ScrollUp() {
	if a.offset > 0 {
		a.offset--
	}
}

// ScrollDown moves the window toward older alerts.
func (a *AlertsComponent) ScrollDown() {
	if a.offset+a.visible < len(a.rows) {
		a.offset++
	}
}

// View renders the alerts component.
func (a *AlertsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	simStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d)", len(a.rows))))
	sb.WriteString("\n\n")

	if len(a.rows) == 0 {
		sb.WriteString("No opportunities detected yet...")
		return sb.String()
	}

	end := min(a.offset+a.visible, len(a.rows))
	for _, row := range a.rows[a.offset:end] {
		line := fmt.Sprintf("  %s #%-6d %-18s buy %s sell %s  %s",
			row.Time, row.Iteration, row.Direction, row.BuyPrice, row.SellPrice,
			profitStyle.Render(fmt.Sprintf("%s%% ($%s)", row.ProfitPct, row.EstProfit)))
		if row.Simulated {
			line += " " + simStyle.Render("[sim]")
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
