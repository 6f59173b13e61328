package domain

import (
	"testing"

	"github.com/shopspring/decimal"

	obDomain "github.com/fd1az/arbitrage-scanner/business/orderbook/domain"
)

var notional = decimal.NewFromInt(1000)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// venueQuotes builds one venue's quotes from single-level books.
func venueQuotes(t *testing.T, id, fee, bidPx, bidQty, askPx, askQty string) VenueQuotes {
	t.Helper()
	bid, err := obDomain.NewPriceLevel(bidPx, bidQty)
	if err != nil {
		t.Fatal(err)
	}
	ask, err := obDomain.NewPriceLevel(askPx, askQty)
	if err != nil {
		t.Fatal(err)
	}
	snap := obDomain.NewSnapshot(id, "BTC/USDT", []obDomain.PriceLevel{bid}, []obDomain.PriceLevel{ask}, 5, testTime)

	buy, err := snap.Quote(obDomain.Buying, notional)
	if err != nil {
		t.Fatal(err)
	}
	sell, err := snap.Quote(obDomain.Selling, notional)
	if err != nil {
		t.Fatal(err)
	}
	return VenueQuotes{
		Venue: obDomain.Venue{ID: id, FeeRate: d(fee), Reachable: true},
		Buy:   buy,
		Sell:  sell,
	}
}

func TestEvaluate_FeeAdjustedScenario(t *testing.T) {
	// Buy at 100 on a, sell at 101 on b, 0.1% taker fee each side.
	a := venueQuotes(t, "a", "0.001", "99.9", "100", "100", "100")
	b := venueQuotes(t, "b", "0.001", "101", "100", "101.1", "100")

	e := Evaluate([]VenueQuotes{a, b}, d("0.05"))

	if e.Best == nil {
		t.Fatal("expected a best direction")
	}
	if e.Best.Direction != (Direction{BuyVenue: "a", SellVenue: "b"}) {
		t.Errorf("best = %s", e.Best.Direction)
	}
	if !e.Best.NetBuyPrice.Equal(d("100.1")) || !e.Best.NetSellPrice.Round(6).Equal(d("100.899")) {
		t.Errorf("net prices = %s / %s", e.Best.NetBuyPrice, e.Best.NetSellPrice)
	}
	if got := e.Best.ProfitPct.Round(3); !got.Equal(d("0.798")) {
		t.Errorf("profit = %s%%, want ~0.798%%", got)
	}
	if !e.Qualifies {
		t.Error("0.798% should clear a 0.05% threshold")
	}
	if !e.Directions[1].ProfitPct.IsNegative() {
		t.Errorf("reverse direction profit = %s, want negative", e.Directions[1].ProfitPct)
	}
}

func TestEvaluate_ZeroFeeIsGrossSpread(t *testing.T) {
	// Prices that divide the notional exactly keep the walk lossless.
	a := venueQuotes(t, "a", "0", "80", "100", "100", "100")
	b := venueQuotes(t, "b", "0", "125", "100", "200", "100")

	e := Evaluate([]VenueQuotes{a, b}, d("0.05"))

	if !e.Best.ProfitPct.Equal(d("25")) {
		t.Errorf("profit = %s, want 25", e.Best.ProfitPct)
	}
	if !e.Best.NetBuyPrice.Equal(e.Best.BuyPrice) || !e.Best.NetSellPrice.Equal(e.Best.SellPrice) {
		t.Error("zero fee should leave prices unchanged")
	}
}

func TestEvaluate_ThresholdIsStrict(t *testing.T) {
	a := venueQuotes(t, "a", "0", "80", "100", "100", "100")
	b := venueQuotes(t, "b", "0", "125", "100", "200", "100")

	tests := []struct {
		threshold string
		want      bool
	}{
		{"24.99", true},
		{"25", false},
		{"30", false},
	}
	for _, tt := range tests {
		e := Evaluate([]VenueQuotes{a, b}, d(tt.threshold))
		if e.Qualifies != tt.want {
			t.Errorf("threshold %s: Qualifies = %v, want %v", tt.threshold, e.Qualifies, tt.want)
		}
		if e.Best == nil {
			t.Errorf("threshold %s: best spread should be reported even when not qualifying", tt.threshold)
		}
	}
}

func TestEvaluate_TieKeepsFirstDirection(t *testing.T) {
	// Both directions net exactly 1%.
	a := venueQuotes(t, "a", "0", "101", "100", "100", "100")
	b := venueQuotes(t, "b", "0", "101", "100", "100", "100")

	e := Evaluate([]VenueQuotes{a, b}, d("0.05"))

	if !e.Directions[0].ProfitPct.Equal(e.Directions[1].ProfitPct) {
		t.Fatal("fixture should tie")
	}
	if e.Best != &e.Directions[0] {
		t.Errorf("best = %s, want the first evaluated direction", e.Best.Direction)
	}
}

func TestEvaluate_InsufficientDepth(t *testing.T) {
	t.Run("one direction unavailable", func(t *testing.T) {
		a := venueQuotes(t, "a", "0.001", "99.9", "100", "100", "100")
		b := venueQuotes(t, "b", "0.001", "101", "0.5", "101.1", "100") // 50.5 of bids

		e := Evaluate([]VenueQuotes{a, b}, d("0.05"))

		if e.Directions[0].Available {
			t.Error("a→b sells 1000 into 50.5 of bids, should be unavailable")
		}
		if e.Best == nil || e.Best.Direction.BuyVenue != "b" {
			t.Fatalf("best = %+v, want the reverse direction", e.Best)
		}
		if e.Qualifies {
			t.Error("negative reverse spread must not qualify")
		}
	})

	t.Run("all unavailable", func(t *testing.T) {
		a := venueQuotes(t, "a", "0.001", "99.9", "0.1", "100", "0.1")
		b := venueQuotes(t, "b", "0.001", "101", "0.1", "101.1", "0.1")

		e := Evaluate([]VenueQuotes{a, b}, d("0.05"))

		if !e.Unavailable() || e.Qualifies {
			t.Errorf("expected unavailable evaluation, got best=%+v qualifies=%v", e.Best, e.Qualifies)
		}
	})
}

func TestEvaluate_Idempotent(t *testing.T) {
	a := venueQuotes(t, "a", "0.001", "99.9", "100", "100", "100")
	b := venueQuotes(t, "b", "0.001", "101", "100", "101.1", "100")
	in := []VenueQuotes{a, b}

	first := Evaluate(in, d("0.05"))
	second := Evaluate(in, d("0.05"))

	if first.Qualifies != second.Qualifies || first.Best.Direction != second.Best.Direction ||
		!first.Best.ProfitPct.Equal(second.Best.ProfitPct) {
		t.Error("evaluating the same input twice gave different results")
	}
}

func TestEvaluate_PairOrder(t *testing.T) {
	a := venueQuotes(t, "a", "0", "99", "100", "100", "100")
	b := venueQuotes(t, "b", "0", "99", "100", "100", "100")
	c := venueQuotes(t, "c", "0", "99", "100", "100", "100")

	e := Evaluate([]VenueQuotes{a, b, c}, d("0.05"))

	want := []string{"a→b", "b→a", "a→c", "c→a", "b→c", "c→b"}
	if len(e.Directions) != len(want) {
		t.Fatalf("len = %d, want %d", len(e.Directions), len(want))
	}
	for i, w := range want {
		if got := e.Directions[i].Direction.ShortString(); got != w {
			t.Errorf("Directions[%d] = %s, want %s", i, got, w)
		}
	}
}

func TestNewOpportunity(t *testing.T) {
	r := DirectionResult{
		Direction: Direction{BuyVenue: "binance", SellVenue: "kraken"},
		Notional:  notional,
		Available: true,
		ProfitPct: d("0.8"),
	}

	opp := NewOpportunity(r, "BTC/USDT", 10, testTime)

	if !opp.EstimatedProfit.Equal(d("8")) {
		t.Errorf("EstimatedProfit = %s, want 8", opp.EstimatedProfit)
	}
	if opp.ID != "10-binance→kraken" || opp.Iteration != 10 {
		t.Errorf("opp = %+v", opp)
	}
}
