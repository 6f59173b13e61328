package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

// InjectorConfig describes the synthetic level written into the target
// venue's book every Period iterations.
type InjectorConfig struct {
	Period         uint64
	TargetVenue    string
	ReferenceVenue string
	Side           obDomain.BookSide // side of the target overwritten
	Factor         decimal.Decimal   // applied to the reference venue's opposite best price
	Quantity       decimal.Decimal
}

// Injector fabricates a crossed book so the alert path can be exercised
// against live data.
type Injector struct {
	cfg InjectorConfig
}

// NewInjector validates cfg.
func NewInjector(cfg InjectorConfig) (*Injector, error) {
	switch {
	case cfg.Period == 0:
		return nil, apperror.Configuration("simulation period must be positive")
	case cfg.TargetVenue == "" || cfg.ReferenceVenue == "":
		return nil, apperror.Configuration("simulation target and reference venues are required")
	case cfg.TargetVenue == cfg.ReferenceVenue:
		return nil, apperror.Configuration("simulation target and reference venues must differ")
	case !cfg.Factor.IsPositive():
		return nil, apperror.Configuration("simulation factor must be positive")
	case !cfg.Quantity.IsPositive():
		return nil, apperror.Configuration("simulation quantity must be positive")
	}
	return &Injector{cfg: cfg}, nil
}

// Due reports whether iteration (counted from 1) is an injection cycle.
func (i *Injector) Due(iteration uint64) bool {
	return iteration > 0 && iteration%i.cfg.Period == 0
}

// Apply returns snapshots with the target venue's top level on the
// configured side replaced. Asks are priced off the reference venue's best
// bid and bids off its best ask. The input map and snapshots are not
// modified. It returns false, and the input unchanged, when either venue or
// the reference price is missing.
func (i *Injector) Apply(snapshots map[string]*obDomain.Snapshot) (map[string]*obDomain.Snapshot, bool, error) {
	target, ok := snapshots[i.cfg.TargetVenue]
	if !ok || target == nil {
		return snapshots, false, nil
	}
	ref, ok := snapshots[i.cfg.ReferenceVenue]
	if !ok || ref == nil {
		return snapshots, false, nil
	}

	var refLevel obDomain.PriceLevel
	if i.cfg.Side == obDomain.Asks {
		refLevel, ok = ref.BestBid()
	} else {
		refLevel, ok = ref.BestAsk()
	}
	if !ok {
		return snapshots, false, nil
	}

	level := obDomain.PriceLevel{
		Price:    refLevel.Price.Mul(i.cfg.Factor),
		Quantity: i.cfg.Quantity,
	}
	if !level.Price.IsPositive() {
		return snapshots, false, fmt.Errorf("injected price %s is not positive", level.Price)
	}

	out := make(map[string]*obDomain.Snapshot, len(snapshots))
	for k, v := range snapshots {
		out[k] = v
	}
	out[i.cfg.TargetVenue] = target.WithTopLevel(i.cfg.Side, level)
	return out, true, nil
}

// Config returns the injector's settings.
func (i *Injector) Config() InjectorConfig {
	return i.cfg
}
