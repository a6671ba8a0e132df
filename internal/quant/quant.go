// Package quant is the fixed-point numeric and probability kernel shared by
// every detector. It is pure and deterministic: no I/O, no clocks, no
// logging. Degenerate inputs return a fixed value (zero, or one from
// BreakEven once fee >= 1) rather than panicking or returning an error.
package quant

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// ImpliedProbability converts a market price into an implied probability:
// probability = price / maxPayout. maxPayout of zero returns zero.
func ImpliedProbability(price, maxPayout decimal.Decimal) decimal.Decimal {
	if maxPayout.IsZero() {
		return zero
	}
	return price.Div(maxPayout)
}

// PriceFromProbability is the inverse of ImpliedProbability.
func PriceFromProbability(probability, maxPayout decimal.Decimal) decimal.Decimal {
	return probability.Mul(maxPayout)
}

// BreakEven returns the minimum true probability needed to break even after
// fees on a $1-payout binary bet bought at price: P / (1 - fee). Returns 1
// once fee >= 1 (can never break even).
func BreakEven(price, fee decimal.Decimal) decimal.Decimal {
	if fee.GreaterThanOrEqual(one) {
		return one
	}
	return price.Div(one.Sub(fee))
}

// Kelly computes the Kelly fraction for a binary market bought at price with
// an estimated true probability p and a fee charged on winnings:
//
//	kelly(p, P, fee) = (p - Peff) / (1 - Peff), Peff = P / (1 - fee)
//
// Clamped to [0, 1]; returns 0 whenever p <= Peff (no edge) or price is
// outside (0, 1).
func Kelly(p, price, fee decimal.Decimal) decimal.Decimal {
	if price.GreaterThanOrEqual(one) || price.LessThanOrEqual(zero) {
		return zero
	}

	effective := BreakEven(price, fee)
	if p.LessThanOrEqual(effective) {
		return zero
	}

	k := p.Sub(effective).Div(one.Sub(effective))
	if k.LessThan(zero) {
		return zero
	}
	if k.GreaterThan(one) {
		return one
	}
	return k
}

// EV computes the fee-adjusted expected value of a $1 bet bought at price
// with true probability p:
//
//	ev(p, P, fee) = p*(1-P)*(1-fee) - (1-p)*P
func EV(p, price, fee decimal.Decimal) decimal.Decimal {
	winProfit := one.Sub(price).Mul(one.Sub(fee))
	lossCost := price
	return p.Mul(winProfit).Sub(one.Sub(p).Mul(lossCost))
}

// ProportionalArb computes risk-free arbitrage sizing across a binary
// market's two asks, allocating proportionally to price so both sides
// return an identical share count regardless of outcome.
//
// Returns (netProfit, yesAllocation, noAllocation, grossProfit). Any input
// with yes+no >= 1 (no arbitrage) or yes+no <= 0 yields all zeros.
func ProportionalArb(yesPrice, noPrice, invest, fee decimal.Decimal) (net, yesAlloc, noAlloc, gross decimal.Decimal) {
	totalCost := yesPrice.Add(noPrice)
	if totalCost.GreaterThanOrEqual(one) || totalCost.LessThanOrEqual(zero) {
		return zero, zero, zero, zero
	}

	profitPerDollar := one.Sub(totalCost)
	gross = profitPerDollar.Mul(invest)

	yesAlloc = invest.Mul(yesPrice.Div(totalCost))
	noAlloc = invest.Mul(noPrice.Div(totalCost))

	totalFees := yesAlloc.Add(noAlloc).Mul(fee)
	net = gross.Sub(totalFees)
	return net, yesAlloc, noAlloc, gross
}

// NormalCDF is the standard normal cumulative distribution function,
// computed via the error function: P(X<=z) = 0.5*(1+erf(z/sqrt(2))).
// Used only for mapping a momentum z-score to a probability; callers must
// convert the float64 result to decimal before it leaves the momentum
// component, per the no-binary-floats-in-ledger-paths rule.
func NormalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi decimal.Decimal) decimal.Decimal {
	if x.LessThan(lo) {
		return lo
	}
	if x.GreaterThan(hi) {
		return hi
	}
	return x
}
