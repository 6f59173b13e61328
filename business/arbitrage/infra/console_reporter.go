package infra

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
)

// Banner describes the run for the startup header.
type Banner struct {
	Symbol    string
	Venues    []string
	Notional  decimal.Decimal
	Threshold decimal.Decimal
	Cadence   time.Duration
	Simulate  bool
}

type consoleStyles struct {
	system   lipgloss.Style
	status   lipgloss.Style
	negative lipgloss.Style
	positive lipgloss.Style
	alert    lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
}

// ConsoleReporter implements Reporter for CLI output. The status line
// rewrites itself in place; alerts are printed as blocks.
type ConsoleReporter struct {
	out    io.Writer
	banner Banner
	format Formatter
	styles consoleStyles

	mu         sync.Mutex
	statusLen  int // visible width of the status line currently shown
	statusLive bool
}

var _ app.Reporter = (*ConsoleReporter)(nil)

// NewConsoleReporter creates a ConsoleReporter writing to out. Styling
// degrades to plain text when out is not a terminal.
func NewConsoleReporter(out io.Writer, banner Banner) *ConsoleReporter {
	r := lipgloss.NewRenderer(out)
	return &ConsoleReporter{
		out:    out,
		banner: banner,
		styles: consoleStyles{
			system:   r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
			status:   r.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
			negative: r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
			positive: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
			alert:    r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
			label:    r.NewStyle().Foreground(lipgloss.Color("#22D3EE")),
			muted:    r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		},
	}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range r.format.Banner(r.banner) {
		fmt.Fprintln(r.out, r.styles.system.Render(line))
	}
	fmt.Fprintln(r.out)
	return nil
}

// Report prints an alert block for opportunities and refreshes the status
// line otherwise.
func (r *ConsoleReporter) Report(o app.CycleOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lines := r.format.Alert(o); lines != nil {
		r.clearStatus()
		fmt.Fprintln(r.out, r.styles.alert.Render(lines[0]))
		for _, line := range lines[1 : len(lines)-2] {
			label, rest, _ := strings.Cut(line, ":")
			fmt.Fprintln(r.out, r.styles.label.Render(label+":")+rest)
		}
		fmt.Fprintln(r.out, r.styles.alert.Render(lines[len(lines)-2]))
		fmt.Fprintln(r.out, r.styles.muted.Render(lines[len(lines)-1]))
		return
	}

	plain := r.format.StatusLine(o)
	spread, negative, ok := r.format.Spread(o)
	spreadStyle := r.styles.positive
	if negative || !ok {
		spreadStyle = r.styles.negative
	}

	styled := strings.Replace(plain, "SCANNING", r.styles.status.Render("SCANNING"), 1)
	styled = strings.Replace(styled, "Spread: "+spread, "Spread: "+spreadStyle.Render(spread), 1)

	pad := ""
	if n := len(plain); n < r.statusLen {
		pad = strings.Repeat(" ", r.statusLen-n)
	}
	fmt.Fprint(r.out, "\r"+styled+pad)
	r.statusLen = len(plain)
	r.statusLive = true
}

// clearStatus blanks the in-place status line before block output.
func (r *ConsoleReporter) clearStatus() {
	if !r.statusLive {
		return
	}
	fmt.Fprint(r.out, "\r"+strings.Repeat(" ", r.statusLen)+"\r")
	r.statusLive = false
	r.statusLen = 0
}

// Stop ends the status line and prints a closing line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusLive {
		fmt.Fprintln(r.out)
		r.statusLive = false
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.styles.system.Render("[STOP] Scanner halted."))
	return nil
}
