package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/domain"
	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
)

// CycleInput is everything a strategy sees for one cycle. Snapshots all come
// from the same cycle and are keyed by venue id.
type CycleInput struct {
	Iteration uint64
	Symbol    string
	Notional  decimal.Decimal
	Threshold decimal.Decimal // percent
	Venues    []obDomain.Venue
	Snapshots map[string]*obDomain.Snapshot
	Injected  bool
	At        time.Time
}

// CycleOutcome is the structured result handed to the reporter.
type CycleOutcome struct {
	Iteration   uint64
	Symbol      string
	Notional    decimal.Decimal
	Threshold   decimal.Decimal
	At          time.Time
	Venues      []obDomain.Venue
	Snapshots   map[string]*obDomain.Snapshot
	Latencies   map[string]time.Duration // per venue fetch
	Latency     time.Duration            // cycle, fetch start through evaluation
	Evaluation  domain.Evaluation
	Opportunity *domain.Opportunity // nil unless the best direction qualified
	Injected    bool
	Strategy    string
}

// Strategy turns one cycle's snapshots into an outcome.
type Strategy interface {
	Name() string
	Evaluate(in CycleInput) (CycleOutcome, error)
}

// CrossVenueStrategy walks both sides of every venue's book for the notional
// and evaluates every venue pair net of fees.
type CrossVenueStrategy struct{}

var _ Strategy = CrossVenueStrategy{}

func (CrossVenueStrategy) Name() string { return "cross-venue" }

// Evaluate fails only on an invalid notional. Venues without a snapshot are
// left out of the evaluation.
func (s CrossVenueStrategy) Evaluate(in CycleInput) (CycleOutcome, error) {
	quotes := make([]domain.VenueQuotes, 0, len(in.Venues))
	for _, v := range in.Venues {
		snap, ok := in.Snapshots[v.ID]
		if !ok || snap == nil {
			continue
		}
		buy, err := snap.Quote(obDomain.Buying, in.Notional)
		if err != nil {
			return CycleOutcome{}, err
		}
		sell, err := snap.Quote(obDomain.Selling, in.Notional)
		if err != nil {
			return CycleOutcome{}, err
		}
		quotes = append(quotes, domain.VenueQuotes{Venue: v, Buy: buy, Sell: sell})
	}

	out := CycleOutcome{
		Iteration:  in.Iteration,
		Symbol:     in.Symbol,
		Notional:   in.Notional,
		Threshold:  in.Threshold,
		At:         in.At,
		Venues:     in.Venues,
		Snapshots:  in.Snapshots,
		Evaluation: domain.Evaluate(quotes, in.Threshold),
		Injected:   in.Injected,
		Strategy:   s.Name(),
	}
	if out.Evaluation.Qualifies {
		out.Opportunity = domain.NewOpportunity(*out.Evaluation.Best, in.Symbol, in.Iteration, in.At)
		out.Opportunity.Simulated = in.Injected
	}
	return out, nil
}
