package infra

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/arbitrage-scanner/pkg/ui"
	"github.com/fd1az/arbitrage-scanner/pkg/ui/components"
)

// TUIReporter implements Reporter for the Bubble Tea dashboard.
type TUIReporter struct {
	send   func(tea.Msg)
	banner Banner
	format Formatter
}

var _ app.Reporter = (*TUIReporter)(nil)

// NewTUIReporter creates a TUIReporter. send defaults to ui.Send.
func NewTUIReporter(banner Banner, send func(tea.Msg)) *TUIReporter {
	if send == nil {
		send = ui.Send
	}
	return &TUIReporter{send: send, banner: banner}
}

// Start announces the run to the dashboard.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.ScanStartedMsg{
		Symbol:    r.banner.Symbol,
		Venues:    r.banner.Venues,
		Notional:  r.banner.Notional.StringFixed(0),
		Threshold: r.banner.Threshold.String(),
		Cadence:   r.banner.Cadence,
		Simulate:  r.banner.Simulate,
	})
	return nil
}

// Report sends the cycle to the dashboard.
func (r *TUIReporter) Report(o app.CycleOutcome) {
	spread, negative, ok := r.format.Spread(o)
	msg := ui.CycleMsg{
		Iteration:      o.Iteration,
		Spread:         spread,
		SpreadNegative: negative,
		Available:      ok,
		Latency:        r.format.Latency(o),
	}

	for _, v := range o.Venues {
		row := components.BookRow{Venue: v.ID, Ask: "-", Bid: "-", Latency: o.Latencies[v.ID]}
		if snap := o.Snapshots[v.ID]; snap != nil {
			if ask, ok := snap.BestAsk(); ok {
				row.Ask = ask.Price.StringFixed(2)
			}
			if bid, ok := snap.BestBid(); ok {
				row.Bid = bid.Price.StringFixed(2)
			}
		}
		msg.Books = append(msg.Books, row)
	}

	if opp := o.Opportunity; opp != nil {
		msg.Alert = &components.AlertRow{
			Time:      opp.DetectedAt.Format("15:04:05"),
			Iteration: opp.Iteration,
			Direction: strings.ToUpper(opp.Direction.ShortString()),
			BuyPrice:  opp.BuyPrice.StringFixed(2),
			SellPrice: opp.SellPrice.StringFixed(2),
			ProfitPct: opp.ProfitPct.StringFixed(3),
			EstProfit: opp.EstimatedProfit.StringFixed(2),
			Simulated: opp.Simulated,
		}
	}

	r.send(msg)
}

// Stop tells the dashboard the scanner stopped.
func (r *TUIReporter) Stop() error {
	r.send(ui.StoppedMsg{})
	return nil
}
