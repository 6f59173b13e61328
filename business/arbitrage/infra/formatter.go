// Package infra contains the reporters that render cycle outcomes.
package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
)

// Formatter renders outcomes as plain text. Reporters add styling on top.
type Formatter struct{}

// TopOfBook returns "venue: ask/bid" for every venue in registry order.
func (Formatter) TopOfBook(o app.CycleOutcome) []string {
	out := make([]string, 0, len(o.Venues))
	for _, v := range o.Venues {
		snap, ok := o.Snapshots[v.ID]
		if !ok || snap == nil {
			out = append(out, v.ID+": -/-")
			continue
		}
		ask, _ := snap.BestAsk()
		bid, _ := snap.BestBid()
		out = append(out, fmt.Sprintf("%s: %s/%s", v.ID, ask.Price.StringFixed(2), bid.Price.StringFixed(2)))
	}
	return out
}

// Spread returns the best net spread text and whether it is negative.
// ok is false when no direction had depth on both legs.
func (Formatter) Spread(o app.CycleOutcome) (text string, negative, ok bool) {
	best := o.Evaluation.Best
	if best == nil {
		return "n/a", false, false
	}
	return best.ProfitPct.StringFixed(3) + "%", best.ProfitPct.IsNegative(), true
}

// Latency returns the cycle latency, from fetch start through evaluation.
func (Formatter) Latency(o app.CycleOutcome) time.Duration {
	return o.Latency
}

// StatusLine renders the one-line radar view of a cycle.
func (f Formatter) StatusLine(o app.CycleOutcome) string {
	spread, _, _ := f.Spread(o)
	parts := []string{"SCANNING", o.Symbol}
	parts = append(parts, f.TopOfBook(o)...)
	parts = append(parts,
		"Spread: "+spread,
		fmt.Sprintf("Lat: %dms", f.Latency(o).Milliseconds()),
		fmt.Sprintf("#%d", o.Iteration),
	)
	return strings.Join(parts, " | ")
}

// Alert renders the lines of an opportunity block; nil without one.
func (f Formatter) Alert(o app.CycleOutcome) []string {
	opp := o.Opportunity
	if opp == nil {
		return nil
	}
	header := fmt.Sprintf(">>> OPPORTUNITY DETECTED [%s%% NET] <<<", opp.ProfitPct.StringFixed(3))
	if opp.Simulated {
		header += " (simulated)"
	}
	return []string{
		header,
		fmt.Sprintf("  BUY : %-8s @ %s", strings.ToUpper(opp.Direction.BuyVenue), opp.BuyPrice.StringFixed(2)),
		fmt.Sprintf("  SELL: %-8s @ %s", strings.ToUpper(opp.Direction.SellVenue), opp.SellPrice.StringFixed(2)),
		fmt.Sprintf("  EST. PROFIT: $%s on $%s (iteration %d, Lat: %.1fms)",
			opp.EstimatedProfit.StringFixed(2), opp.Notional.StringFixed(0), opp.Iteration,
			float64(f.Latency(o).Microseconds())/1000),
		strings.Repeat("-", 50),
	}
}

// Banner renders the startup header.
func (Formatter) Banner(b Banner) []string {
	return []string{
		fmt.Sprintf("[SYSTEM] Scanning %s order books on %s", b.Symbol, strings.Join(b.Venues, ", ")),
		fmt.Sprintf("[CONFIG] Notional: $%s | Threshold: %s%% | Cadence: %s | Sim: %t",
			b.Notional.StringFixed(0), b.Threshold.String(), b.Cadence, b.Simulate),
	}
}
