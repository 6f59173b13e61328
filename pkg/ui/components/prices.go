// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// BookRow is one venue's top of book for the latest cycle.
type BookRow struct {
	Venue   string
	Ask     string
	Bid     string
	Latency time.Duration
}

// BooksComponent renders the per-venue top-of-book table.
type BooksComponent struct {
	rows           []BookRow
	symbol         string
	spread         string
	spreadNegative bool
	available      bool
}

// NewBooksComponent creates a new books component.
func NewBooksComponent() *BooksComponent {
	return &BooksComponent{}
}

// SetSymbol sets the instrument name.
func (b *BooksComponent) SetSymbol(symbol string) {
	b.symbol = symbol
}

// Update replaces the rows and the best spread.
func (b *BooksComponent) Update(rows []BookRow, spread string, negative, available bool) {
	b.rows = rows
	b.spread = spread
	b.spreadNegative = negative
	b.available = available
}

// View renders the books component.
func (b *BooksComponent) View() string {
	if len(b.rows) == 0 {
		return "Waiting for order books..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("ORDER BOOKS (%s)", b.symbol)))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  %-10s  %14s  %14s  %8s\n", "Venue", "Best ask", "Best bid", "Latency"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 52)) + "\n")

	for _, row := range b.rows {
		sb.WriteString(fmt.Sprintf("  %-10s  %14s  %14s  %8s\n",
			row.Venue, row.Ask, row.Bid, fmt.Sprintf("%dms", row.Latency.Milliseconds())))
	}

	sb.WriteString("\n")
	switch {
	case !b.available:
		sb.WriteString("  Best net spread: " + dimStyle.Render("n/a (insufficient depth)"))
	case b.spreadNegative:
		sb.WriteString("  Best net spread: " + negativeStyle.Render(b.spread))
	default:
		sb.WriteString("  Best net spread: " + positiveStyle.Render(b.spread))
	}
	return sb.String()
}
