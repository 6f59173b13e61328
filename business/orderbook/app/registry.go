package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

const registryProbeTimeout = 5 * time.Second

// Registry owns the configured venues. Fee rates and reachability are
// resolved once by Initialize; afterwards the registry is read-only.
type Registry struct {
	log     logger.LoggerInterface
	clients []VenueClient

	mu          sync.RWMutex
	venues      []domain.Venue
	initialized bool

	closeOnce sync.Once
	closeErr  error
}

// NewRegistry keeps clients in the given order, which is also the order
// venue pairs are evaluated in.
func NewRegistry(log logger.LoggerInterface, clients ...VenueClient) *Registry {
	return &Registry{log: log, clients: clients}
}

// Initialize fetches every venue's fee rate and probes reachability. Fewer
// than two venues is a configuration error; a fee lookup failure is a
// registry error. Both are fatal to the scanner.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("registry already initialized"))
	}
	if len(r.clients) < 2 {
		return apperror.Configuration(fmt.Sprintf("cross-venue scanning needs at least two venues, got %d", len(r.clients)))
	}

	venues := make([]domain.Venue, 0, len(r.clients))
	for _, c := range r.clients {
		fctx, cancel := context.WithTimeout(ctx, registryProbeTimeout)
		fee, err := c.FetchFeeRate(fctx)
		cancel()
		if err != nil {
			return apperror.New(apperror.CodeVenueRegistryError,
				apperror.WithVenue(c.ID()),
				apperror.WithContext("fee rate lookup failed"),
				apperror.WithCause(err),
			)
		}
		if fee.IsNegative() {
			return apperror.New(apperror.CodeVenueRegistryError,
				apperror.WithVenue(c.ID()),
				apperror.WithContext("negative fee rate "+fee.String()),
			)
		}

		reachable := true
		if p, ok := c.(Pinger); ok {
			pctx, cancel := context.WithTimeout(ctx, registryProbeTimeout)
			err := p.Ping(pctx)
			cancel()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				reachable = false
				r.log.Warn(ctx, "venue unreachable at startup, scanning anyway", "venue", c.ID(), "error", err)
			}
		}

		venues = append(venues, domain.Venue{ID: c.ID(), FeeRate: fee, Reachable: reachable})
		r.log.Info(ctx, "venue registered", "venue", c.ID(), "fee_rate", fee.String(), "reachable", reachable)
	}

	r.venues = venues
	r.initialized = true
	return nil
}

// Venues returns the registered venues in registry order.
func (r *Registry) Venues() []domain.Venue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Venue, len(r.venues))
	copy(out, r.venues)
	return out
}

// Venue looks up one venue by id.
func (r *Registry) Venue(id string) (domain.Venue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.venues {
		if v.ID == id {
			return v, true
		}
	}
	return domain.Venue{}, false
}

// Clients returns the venue clients in registry order.
func (r *Registry) Clients() []VenueClient {
	out := make([]VenueClient, len(r.clients))
	copy(out, r.clients)
	return out
}

// Initialized reports whether Initialize has completed.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Close closes every client once and joins their errors.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		for _, c := range r.clients {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c.ID(), err))
			}
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}
