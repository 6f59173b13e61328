package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var tolerance = decimal.New(1, -8)

// askBook builds an ascending ask side from a base price, positive steps and
// quantities.
func askBook(base float64, steps, qtys []float64) []PriceLevel {
	price := decimal.NewFromFloat(base).Round(2)
	book := make([]PriceLevel, len(qtys))
	for i := range qtys {
		if i > 0 {
			price = price.Add(decimal.NewFromFloat(steps[i]).Round(2))
		}
		book[i] = PriceLevel{Price: price, Quantity: decimal.NewFromFloat(qtys[i]).Round(4)}
	}
	return book
}

func bookCost(book []PriceLevel) decimal.Decimal {
	total := decimal.Zero
	for _, l := range book {
		total = total.Add(l.Cost())
	}
	return total
}

func TestWeightedPrice_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("covered notional prices within consumed levels", prop.ForAll(
		func(base float64, steps, qtys []float64, frac float64) bool {
			book := askBook(base, steps, qtys)
			notional := bookCost(book).Mul(decimal.NewFromFloat(frac)).Round(8)
			if !notional.IsPositive() {
				return true
			}

			fill, err := WeightedPrice(book, notional)
			if err != nil || !fill.Sufficient {
				return false
			}

			lo := book[0].Price
			hi := book[fill.LevelsConsumed-1].Price
			if fill.Price.LessThan(lo.Sub(tolerance)) || fill.Price.GreaterThan(hi.Add(tolerance)) {
				return false
			}
			return fill.FilledQty.Mul(fill.Price).Sub(fill.WeightedCost).Abs().LessThan(decimal.New(1, -6))
		},
		gen.Float64Range(1, 100000),
		gen.SliceOfN(DefaultDepth, gen.Float64Range(0.01, 50)),
		gen.SliceOfN(DefaultDepth, gen.Float64Range(0.001, 10)),
		gen.Float64Range(0.01, 1),
	))

	properties.Property("notional beyond total depth is never priced", prop.ForAll(
		func(base float64, steps, qtys []float64, extra float64) bool {
			book := askBook(base, steps, qtys)
			notional := bookCost(book).Mul(decimal.NewFromFloat(1 + extra))

			fill, err := WeightedPrice(book, notional)
			return err == nil && !fill.Sufficient && fill.Price.IsZero()
		},
		gen.Float64Range(1, 100000),
		gen.SliceOfN(DefaultDepth, gen.Float64Range(0.01, 50)),
		gen.SliceOfN(DefaultDepth, gen.Float64Range(0.001, 10)),
		gen.Float64Range(0.001, 10),
	))

	properties.TestingRun(t)
}
