// Package backtest replays resolved markets against pluggable strategies to
// produce win-rate, ROI, drawdown and profit-factor metrics, using the same
// price-history rows the live detectors would have seen.
package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/cryptoedge/bot/internal/model"
)

// Strategy is the plug-in contract every backtest strategy implements.
// History is every price snapshot observed so far, ascending by time; the
// last element is the candidate snapshot under evaluation. Recomputing from
// history on every call (rather than mutating hidden state) keeps a run
// deterministic: identical inputs always produce identical metrics.
type Strategy interface {
	Name() string
	ShouldSignal(history []model.PriceSnapshot) bool
	TradeSide(history []model.PriceSnapshot) model.TradeSide
	OrderType() model.OrderType
	OrderPrice(history []model.PriceSnapshot, side model.TradeSide) decimal.Decimal
}

func last(history []model.PriceSnapshot) model.PriceSnapshot {
	return history[len(history)-1]
}

func maxSide(snap model.PriceSnapshot) (model.TradeSide, decimal.Decimal) {
	if snap.YesPrice.GreaterThanOrEqual(snap.NoPrice) {
		return model.TradeSideYes, snap.YesPrice
	}
	return model.TradeSideNo, snap.NoPrice
}

func priceForSide(snap model.PriceSnapshot, side model.TradeSide) decimal.Decimal {
	if side == model.TradeSideYes {
		return snap.YesPrice
	}
	return snap.NoPrice
}

func oppositeSide(side model.TradeSide) model.TradeSide {
	if side == model.TradeSideYes {
		return model.TradeSideNo
	}
	return model.TradeSideYes
}

// ExpiryScalper signals once either side crosses Threshold and bets with
// the skew — the side already priced high.
type ExpiryScalper struct {
	Threshold decimal.Decimal
}

func (s ExpiryScalper) Name() string { return "expiry" }

func (s ExpiryScalper) ShouldSignal(history []model.PriceSnapshot) bool {
	_, maxPrice := maxSide(last(history))
	return maxPrice.GreaterThanOrEqual(s.Threshold)
}

func (s ExpiryScalper) TradeSide(history []model.PriceSnapshot) model.TradeSide {
	side, _ := maxSide(last(history))
	return side
}

func (s ExpiryScalper) OrderType() model.OrderType { return model.OrderTypeMarket }

func (s ExpiryScalper) OrderPrice(history []model.PriceSnapshot, side model.TradeSide) decimal.Decimal {
	return priceForSide(last(history), side)
}

// ContrarianScalper signals on the same skew threshold as ExpiryScalper but
// bets against it, resting a LIMIT order at LimitPrice on the cheap side
// (or filling at MARKET when UseMarket is set).
type ContrarianScalper struct {
	Threshold  decimal.Decimal
	LimitPrice decimal.Decimal
	UseMarket  bool
}

func (s ContrarianScalper) Name() string { return "contrarian" }

func (s ContrarianScalper) ShouldSignal(history []model.PriceSnapshot) bool {
	_, maxPrice := maxSide(last(history))
	return maxPrice.GreaterThanOrEqual(s.Threshold)
}

func (s ContrarianScalper) TradeSide(history []model.PriceSnapshot) model.TradeSide {
	side, _ := maxSide(last(history))
	return oppositeSide(side)
}

func (s ContrarianScalper) OrderType() model.OrderType {
	if s.UseMarket {
		return model.OrderTypeMarket
	}
	return model.OrderTypeLimit
}

func (s ContrarianScalper) OrderPrice(history []model.PriceSnapshot, side model.TradeSide) decimal.Decimal {
	if s.UseMarket {
		return priceForSide(last(history), side)
	}
	return s.LimitPrice
}

// ProbabilityGap fits a simple linear trend to the YES-price series and
// trades whichever side's implied edge clears MinEdge.
type ProbabilityGap struct {
	MinEdge decimal.Decimal
}

func (s ProbabilityGap) Name() string { return "probability_gap" }

// trendEstimate projects the YES probability forward using the average
// step-to-step drift across history, clipped to a sane probability range.
func trendEstimate(history []model.PriceSnapshot) decimal.Decimal {
	if len(history) < 2 {
		return last(history).YesPrice
	}
	drift := decimal.Zero
	n := decimal.NewFromInt(int64(len(history) - 1))
	for i := 1; i < len(history); i++ {
		drift = drift.Add(history[i].YesPrice.Sub(history[i-1].YesPrice))
	}
	avgDrift := drift.Div(n)
	p := last(history).YesPrice.Add(avgDrift.Mul(decimal.NewFromInt(3)))
	return clip(p, decimal.NewFromFloat(0.01), decimal.NewFromFloat(0.99))
}

func clip(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func (s ProbabilityGap) edges(history []model.PriceSnapshot) (yesEdge, noEdge decimal.Decimal) {
	pHat := trendEstimate(history)
	snap := last(history)
	yesEdge = pHat.Sub(snap.YesPrice)
	noEdge = decimal.NewFromInt(1).Sub(pHat).Sub(snap.NoPrice)
	return yesEdge, noEdge
}

func (s ProbabilityGap) ShouldSignal(history []model.PriceSnapshot) bool {
	yesEdge, noEdge := s.edges(history)
	return yesEdge.GreaterThanOrEqual(s.MinEdge) || noEdge.GreaterThanOrEqual(s.MinEdge)
}

func (s ProbabilityGap) TradeSide(history []model.PriceSnapshot) model.TradeSide {
	yesEdge, noEdge := s.edges(history)
	if yesEdge.GreaterThanOrEqual(noEdge) {
		return model.TradeSideYes
	}
	return model.TradeSideNo
}

func (s ProbabilityGap) OrderType() model.OrderType { return model.OrderTypeMarket }

func (s ProbabilityGap) OrderPrice(history []model.PriceSnapshot, side model.TradeSide) decimal.Decimal {
	return priceForSide(last(history), side)
}

// MomentumContrarian tracks the peak price of the side favored at the first
// snapshot of history and signals once that side has fallen
// ReversalThreshold off its peak, then bets on the other side.
type MomentumContrarian struct {
	ReversalThreshold decimal.Decimal
}

func (s MomentumContrarian) Name() string { return "momentum_contrarian" }

func (s MomentumContrarian) favoredAndDrop(history []model.PriceSnapshot) (model.TradeSide, decimal.Decimal) {
	favored, _ := maxSide(history[0])
	peak := priceForSide(history[0], favored)
	for _, snap := range history[1:] {
		p := priceForSide(snap, favored)
		if p.GreaterThan(peak) {
			peak = p
		}
	}
	current := priceForSide(last(history), favored)
	return favored, peak.Sub(current)
}

func (s MomentumContrarian) ShouldSignal(history []model.PriceSnapshot) bool {
	_, drop := s.favoredAndDrop(history)
	return drop.GreaterThanOrEqual(s.ReversalThreshold)
}

func (s MomentumContrarian) TradeSide(history []model.PriceSnapshot) model.TradeSide {
	favored, _ := s.favoredAndDrop(history)
	return oppositeSide(favored)
}

func (s MomentumContrarian) OrderType() model.OrderType { return model.OrderTypeMarket }

func (s MomentumContrarian) OrderPrice(history []model.PriceSnapshot, side model.TradeSide) decimal.Decimal {
	return priceForSide(last(history), side)
}

// BinanceMispricing mirrors the live exchange-lag detector (internal/mispricing),
// but a backtest run has no independent BTC candle feed to confirm direction
// against — only the venue's own price series. It therefore only ever
// operates through the gated cheap-side fallback: it never treats the
// known winning side as an oracle, so AllowCheapSideFallback=false means
// this strategy never signals in a backtest.
type BinanceMispricing struct {
	AllowCheapSideFallback bool
	MaxMarketPrice         decimal.Decimal
}

func (s BinanceMispricing) Name() string { return "mispricing" }

func (s BinanceMispricing) cheapSide(history []model.PriceSnapshot) model.TradeSide {
	snap := last(history)
	if snap.YesPrice.LessThanOrEqual(snap.NoPrice) {
		return model.TradeSideYes
	}
	return model.TradeSideNo
}

func (s BinanceMispricing) ShouldSignal(history []model.PriceSnapshot) bool {
	if !s.AllowCheapSideFallback {
		return false
	}
	side := s.cheapSide(history)
	return priceForSide(last(history), side).LessThanOrEqual(s.MaxMarketPrice)
}

func (s BinanceMispricing) TradeSide(history []model.PriceSnapshot) model.TradeSide {
	return s.cheapSide(history)
}

func (s BinanceMispricing) OrderType() model.OrderType { return model.OrderTypeMarket }

func (s BinanceMispricing) OrderPrice(history []model.PriceSnapshot, side model.TradeSide) decimal.Decimal {
	return priceForSide(last(history), side)
}
