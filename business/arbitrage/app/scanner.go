package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
	"github.com/fd1az/arbitrage-scanner/internal/apm"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

// State is the scan loop's lifecycle state.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateScanning     State = "SCANNING"
	StateReporting    State = "REPORTING"
	StateStopped      State = "STOPPED"
)

// ScannerConfig holds the scan loop settings.
type ScannerConfig struct {
	Symbol    string
	Notional  decimal.Decimal
	Threshold decimal.Decimal // percent
	Depth     int
	Cadence   time.Duration // cycle start to cycle start
	AlertHold time.Duration // extra pause after an alert
}

// ScanState is a read-only view of the scanner for status surfaces.
type ScanState struct {
	State     State
	Iteration uint64
	Running   bool
	Symbol    string
	Notional  decimal.Decimal
	Threshold decimal.Decimal
	Fees      map[string]decimal.Decimal
	Simulate  bool
}

// Scanner runs poll → evaluate → report cycles until its context ends.
type Scanner struct {
	cfg      ScannerConfig
	log      logger.LoggerInterface
	venues   VenueSource
	fetcher  BookFetcher
	strategy Strategy
	reporter Reporter
	injector *Injector // nil when simulation is off
	tracer   apm.Tracer

	iteration atomic.Uint64
	mu        sync.RWMutex
	state     State
	lastCycle time.Time

	cycles        metric.Int64Counter
	skipped       metric.Int64Counter
	opportunities metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// NewScanner wires a scanner. injector may be nil.
func NewScanner(
	cfg ScannerConfig,
	log logger.LoggerInterface,
	venues VenueSource,
	fetcher BookFetcher,
	strategy Strategy,
	reporter Reporter,
	injector *Injector,
) *Scanner {
	if cfg.Depth <= 0 || cfg.Depth > obDomain.DefaultDepth {
		cfg.Depth = obDomain.DefaultDepth
	}

	s := &Scanner{
		cfg:      cfg,
		log:      log,
		venues:   venues,
		fetcher:  fetcher,
		strategy: strategy,
		reporter: reporter,
		injector: injector,
		tracer:   apm.NewTracer("arbitrage.scanner"),
		state:    StateInitializing,
	}

	meter := otel.Meter("arbitrage")
	var err error
	if s.cycles, err = meter.Int64Counter("scanner_cycles_total",
		metric.WithDescription("Scan cycles started")); err != nil {
		log.Warn(context.Background(), "cycle counter unavailable", "error", err)
	}
	if s.skipped, err = meter.Int64Counter("scanner_cycles_skipped_total",
		metric.WithDescription("Cycles skipped because a venue fetch failed")); err != nil {
		log.Warn(context.Background(), "skipped cycle counter unavailable", "error", err)
	}
	if s.opportunities, err = meter.Int64Counter("scanner_opportunities_total",
		metric.WithDescription("Opportunities above threshold")); err != nil {
		log.Warn(context.Background(), "opportunity counter unavailable", "error", err)
	}
	if s.cycleDuration, err = meter.Float64Histogram("scanner_cycle_duration_ms",
		metric.WithDescription("Cycle duration from poll to report"),
		metric.WithUnit("ms")); err != nil {
		log.Warn(context.Background(), "cycle duration histogram unavailable", "error", err)
	}

	return s
}

// Run initializes the venue set and scans until ctx is cancelled. It
// returns nil on cancellation and the initialization error otherwise.
// The reporter and venue clients are closed before it returns.
func (s *Scanner) Run(ctx context.Context) error {
	s.setState(StateInitializing)
	defer s.stop(ctx)

	if err := s.reporter.Start(ctx); err != nil {
		return err
	}
	if err := s.venues.Initialize(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	s.log.Info(ctx, "scanner started",
		"symbol", s.cfg.Symbol,
		"notional", s.cfg.Notional.String(),
		"threshold_pct", s.cfg.Threshold.String(),
		"cadence", s.cfg.Cadence.String(),
		"simulate", s.injector != nil,
	)
	s.setState(StateScanning)

	for {
		start := time.Now()
		alerted := s.runCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}

		wait := s.cfg.Cadence - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		if alerted {
			wait += s.cfg.AlertHold
		}
		if wait == 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (s *Scanner) stop(ctx context.Context) {
	s.setState(StateStopped)
	if err := s.reporter.Stop(); err != nil {
		s.log.Warn(ctx, "reporter stop failed", "error", err)
	}
	if err := s.venues.Close(); err != nil {
		s.log.Warn(ctx, "closing venue clients failed", "error", err)
	}
	s.log.Info(ctx, "scanner stopped", "iterations", s.iteration.Load())
}

// runCycle executes one cycle and reports whether an opportunity was
// alerted. A panic is confined to its cycle.
func (s *Scanner) runCycle(ctx context.Context) (alerted bool) {
	iteration := s.iteration.Add(1)
	start := time.Now()

	ctx, span := s.tracer.StartSpanFromContext(ctx, "scanner.cycle")
	defer span.End()
	span.SetAttributes(attribute.Int64("iteration", int64(iteration)))

	defer func() {
		if r := recover(); r != nil {
			appErr := apperror.Internal(fmt.Sprintf("cycle %d", iteration), fmt.Errorf("panic: %v", r))
			span.NoticeError(appErr)
			s.log.Error(ctx, "cycle aborted", appErr.LogArgs()...)
			s.setState(StateScanning)
			alerted = false
		}
	}()

	if s.cycles != nil {
		s.cycles.Add(ctx, 1)
	}

	venues := s.venues.Venues()
	results := s.fetcher.FetchAll(ctx, s.venues.Clients(), s.cfg.Symbol, s.cfg.Depth)
	if ctx.Err() != nil {
		return false
	}

	snapshots := make(map[string]*obDomain.Snapshot, len(venues))
	latencies := make(map[string]time.Duration, len(venues))
	var failed []any
	for _, v := range venues {
		r, ok := results[v.ID]
		latencies[v.ID] = r.Latency
		switch {
		case !ok:
			failed = append(failed, v.ID, "no result")
		case !r.OK():
			failed = append(failed, v.ID, r.Err.Error())
		case !r.Snapshot.Usable():
			failed = append(failed, v.ID, string(apperror.CodeInvalidOrderbook))
		default:
			snapshots[v.ID] = r.Snapshot
		}
	}
	if len(failed) > 0 {
		s.log.Warn(ctx, "cycle skipped", append([]any{"iteration", iteration}, failed...)...)
		span.AddEvent("skipped")
		if s.skipped != nil {
			s.skipped.Add(ctx, 1)
		}
		return false
	}

	injected := false
	if s.injector != nil && s.injector.Due(iteration) {
		var err error
		snapshots, injected, err = s.injector.Apply(snapshots)
		if err != nil {
			s.log.Warn(ctx, "anomaly injection failed", "iteration", iteration, "error", err)
		}
		if injected {
			cfg := s.injector.Config()
			s.log.Info(ctx, "anomaly injected", "iteration", iteration,
				"venue", cfg.TargetVenue, "side", string(cfg.Side))
		}
	}

	outcome, err := s.strategy.Evaluate(CycleInput{
		Iteration: iteration,
		Symbol:    s.cfg.Symbol,
		Notional:  s.cfg.Notional,
		Threshold: s.cfg.Threshold,
		Venues:    venues,
		Snapshots: snapshots,
		Injected:  injected,
		At:        time.Now(),
	})
	if err != nil {
		span.NoticeError(err)
		s.log.Error(ctx, "evaluation failed", "iteration", iteration, "error", err)
		return false
	}
	outcome.Latencies = latencies
	outcome.Latency = time.Since(start)

	// No report once cancellation is observed.
	if ctx.Err() != nil {
		return false
	}

	s.setState(StateReporting)
	s.reporter.Report(outcome)
	s.setState(StateScanning)

	s.mu.Lock()
	s.lastCycle = time.Now()
	s.mu.Unlock()

	if s.cycleDuration != nil {
		s.cycleDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	}

	if outcome.Opportunity == nil {
		return false
	}

	opp := outcome.Opportunity
	span.AddEvent("opportunity",
		attribute.String("direction", opp.Direction.ShortString()),
		attribute.String("profit_pct", opp.ProfitPct.StringFixed(4)))
	if s.opportunities != nil {
		s.opportunities.Add(ctx, 1, metric.WithAttributes(
			attribute.String("direction", opp.Direction.ShortString()),
			attribute.Bool("simulated", opp.Simulated)))
	}
	s.log.Info(ctx, "opportunity detected",
		"iteration", iteration,
		"direction", opp.Direction.ShortString(),
		"profit_pct", opp.ProfitPct.StringFixed(4),
		"estimated_profit", opp.EstimatedProfit.StringFixed(2),
		"simulated", opp.Simulated,
	)
	return true
}

func (s *Scanner) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Iteration returns the number of cycles started.
func (s *Scanner) Iteration() uint64 {
	return s.iteration.Load()
}

// State returns a snapshot of the scanner's status.
func (s *Scanner) State() ScanState {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()

	fees := make(map[string]decimal.Decimal)
	for _, v := range s.venues.Venues() {
		fees[v.ID] = v.FeeRate
	}

	return ScanState{
		State:     st,
		Iteration: s.iteration.Load(),
		Running:   st == StateScanning || st == StateReporting,
		Symbol:    s.cfg.Symbol,
		Notional:  s.cfg.Notional,
		Threshold: s.cfg.Threshold,
		Fees:      fees,
		Simulate:  s.injector != nil,
	}
}

// HealthCheck reports healthy while scanning and at least one cycle
// completed within staleAfter.
func (s *Scanner) HealthCheck(staleAfter time.Duration) func(ctx context.Context) (bool, string) {
	return func(context.Context) (bool, string) {
		s.mu.RLock()
		st, last := s.state, s.lastCycle
		s.mu.RUnlock()

		switch {
		case st == StateStopped || st == StateInitializing:
			return false, string(st)
		case last.IsZero():
			return true, "no completed cycle yet"
		case time.Since(last) > staleAfter:
			return false, fmt.Sprintf("last completed cycle %s ago", time.Since(last).Round(time.Millisecond))
		default:
			return true, fmt.Sprintf("iteration %d", s.iteration.Load())
		}
	}
}
