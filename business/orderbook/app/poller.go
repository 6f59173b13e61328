package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
	"github.com/fd1az/arbitrage-scanner/internal/apm"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/circuitbreaker"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/ratelimit"
)

// FetchResult is one venue's outcome for one cycle: either a snapshot or an
// error, plus how long the attempt took.
type FetchResult struct {
	Snapshot *domain.Snapshot
	Err      error
	Latency  time.Duration
}

// OK reports whether the fetch produced a snapshot.
func (r FetchResult) OK() bool {
	return r.Err == nil && r.Snapshot != nil
}

// PollerConfig configures per-venue guards.
type PollerConfig struct {
	Timeout           time.Duration
	RequestsPerMinute map[string]int // by venue id; 0 or absent = unlimited
	Breaker           func(venue string) circuitbreaker.Config
}

type venueGuard struct {
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[*domain.Snapshot]
}

// Poller fetches snapshots from many venues at once. A slow or failing venue
// only affects its own entry in the result.
type Poller struct {
	log    logger.LoggerInterface
	cfg    PollerConfig
	tracer apm.Tracer

	mu     sync.Mutex
	guards map[string]*venueGuard

	fetchDuration metric.Float64Histogram
	fetchErrors   metric.Int64Counter
}

// NewPoller creates a poller. A zero timeout defaults to two seconds.
func NewPoller(log logger.LoggerInterface, cfg PollerConfig) *Poller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.DefaultConfig
	}

	p := &Poller{
		log:    log,
		cfg:    cfg,
		tracer: apm.NewTracer("orderbook.poller"),
		guards: make(map[string]*venueGuard),
	}

	meter := otel.Meter("orderbook")
	var err error
	p.fetchDuration, err = meter.Float64Histogram("orderbook_fetch_duration_ms",
		metric.WithDescription("Order book fetch latency per venue"),
		metric.WithUnit("ms"))
	if err != nil {
		log.Warn(context.Background(), "fetch duration histogram unavailable", "error", err)
	}
	p.fetchErrors, err = meter.Int64Counter("orderbook_fetch_errors",
		metric.WithDescription("Failed order book fetches per venue and code"))
	if err != nil {
		log.Warn(context.Background(), "fetch error counter unavailable", "error", err)
	}

	return p
}

func (p *Poller) guard(venue string) *venueGuard {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := p.guards[venue]; ok {
		return g
	}

	bc := p.cfg.Breaker(venue)
	bc.OnStateChange = func(name string, from, to gobreaker.State) {
		p.log.Warn(context.Background(), "venue circuit breaker state change",
			"venue", venue, "from", from.String(), "to", to.String())
	}

	g := &venueGuard{
		limiter: ratelimit.New(p.cfg.RequestsPerMinute[venue]),
		breaker: circuitbreaker.New[*domain.Snapshot](bc),
	}
	p.guards[venue] = g
	return g
}

// FetchAll fetches every venue concurrently and returns once each has
// settled or hit the per-fetch timeout. Every venue gets an entry.
func (p *Poller) FetchAll(ctx context.Context, venues []VenueClient, symbol string, depth int) map[string]FetchResult {
	results := make([]FetchResult, len(venues))

	// Goroutines never return an error, so one venue cannot cancel its siblings.
	var g errgroup.Group
	for i, v := range venues {
		g.Go(func() error {
			results[i] = p.fetchOne(ctx, v, symbol, depth)
			return nil
		})
	}
	g.Wait()

	out := make(map[string]FetchResult, len(venues))
	for i, v := range venues {
		out[v.ID()] = results[i]
	}
	return out
}

func (p *Poller) fetchOne(ctx context.Context, v VenueClient, symbol string, depth int) FetchResult {
	venue := v.ID()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	ctx, span := p.tracer.StartSpanFromContext(ctx, "orderbook.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("venue", venue), attribute.String("symbol", symbol))

	g := p.guard(venue)

	type outcome struct {
		snap *domain.Snapshot
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		// A faulty adapter fails its own venue, not the process.
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: apperror.Internal("venue "+venue, fmt.Errorf("panic: %v", r))}
			}
		}()
		if err := g.limiter.Wait(ctx); err != nil {
			done <- outcome{err: err}
			return
		}
		snap, err := g.breaker.Execute(func() (*domain.Snapshot, error) {
			return v.FetchOrderBook(ctx, symbol, depth)
		})
		done <- outcome{snap, err}
	}()

	// A client that ignores ctx must still not hold up the cycle.
	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		res = outcome{err: ctx.Err()}
	}

	latency := time.Since(start)
	attrs := metric.WithAttributes(attribute.String("venue", venue))
	if p.fetchDuration != nil {
		p.fetchDuration.Record(ctx, float64(latency.Microseconds())/1000, attrs)
	}

	if res.err == nil && res.snap == nil {
		res.err = apperror.New(apperror.CodeInvalidOrderbook, apperror.WithContext("nil snapshot"))
	}
	if res.err != nil {
		err := classify(venue, res.err)
		span.NoticeError(err)
		if p.fetchErrors != nil {
			p.fetchErrors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("venue", venue),
				attribute.String("code", string(apperror.GetCode(err))),
			))
		}
		return FetchResult{Err: err, Latency: latency}
	}

	return FetchResult{Snapshot: res.snap, Latency: latency}
}

// classify maps raw fetch failures onto the venue error taxonomy.
func classify(venue string, err error) error {
	switch {
	case apperror.IsAppError(err):
		var appErr *apperror.AppError
		errors.As(err, &appErr)
		if appErr.Venue == "" {
			appErr.Venue = venue
		}
		return appErr
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.New(apperror.CodeServiceTimeout, apperror.WithVenue(venue), apperror.WithCause(err))
	default:
		return apperror.New(apperror.CodeOrderbookFetchFailed, apperror.WithVenue(venue), apperror.WithCause(err))
	}
}

// BreakerOpen reports whether the venue's breaker is currently rejecting.
func (p *Poller) BreakerOpen(venue string) bool {
	p.mu.Lock()
	g, ok := p.guards[venue]
	p.mu.Unlock()
	return ok && g.breaker.IsOpen()
}
