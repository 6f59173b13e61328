package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// NetBuyPrice is the effective cost per unit after the buy venue's taker fee.
func NetBuyPrice(price, feeRate decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(1).Add(feeRate))
}

// NetSellPrice is the effective proceeds per unit after the sell venue's
// taker fee.
func NetSellPrice(price, feeRate decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(1).Sub(feeRate))
}

// NetProfitPct returns (netSell - netBuy) / netBuy * 100. netBuy must be
// positive.
func NetProfitPct(netBuy, netSell decimal.Decimal) decimal.Decimal {
	return netSell.Sub(netBuy).Div(netBuy).Mul(hundred)
}

// EstimatedProfit is the quote-currency profit of trading notional at pct.
func EstimatedProfit(notional, pct decimal.Decimal) decimal.Decimal {
	return notional.Mul(pct).Div(hundred)
}
