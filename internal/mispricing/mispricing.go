// Package mispricing estimates a crypto market's true probability from very
// short-horizon spot-price momentum (the "exchange lag" effect: a directional
// contract's price sometimes lags the spot move that will determine its
// resolution) and recommends a side when the market has not caught up yet.
package mispricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptoedge/bot/internal/model"
)

var (
	zero        = decimal.Zero
	one         = decimal.NewFromInt(1)
	half        = decimal.NewFromFloat(0.5)
	probFloor   = decimal.NewFromFloat(0.50)
	probCeil    = decimal.NewFromFloat(0.95)
	baseProb    = decimal.NewFromFloat(0.65)
	baseOffset  = decimal.NewFromFloat(0.003)
	probSlope   = decimal.NewFromFloat(28.57)
	strongMove  = decimal.NewFromFloat(0.01)
	mediumMove  = decimal.NewFromFloat(0.005)
	strongBonus = decimal.NewFromFloat(0.05)
	mediumBonus = decimal.NewFromFloat(0.02)
	confFloor   = decimal.NewFromFloat(0.1)
	confCeil    = decimal.NewFromFloat(1.0)
)

// Config configures a Detector.
type Config struct {
	MomentumLookback      time.Duration // window of 1-minute spot candles to inspect, e.g. 5m
	MinBTCChange          decimal.Decimal
	MaxMarketPrice        decimal.Decimal
	MinEdge               decimal.Decimal
	ScaleSizeWithEdge     bool
	BaseSize              decimal.Decimal
	AllowCheapSideFallback bool // disabled by default; using the winning side as an oracle is not a true test
}

// Signal is one mispricing evaluation for a market.
type Signal struct {
	Market             model.Market
	Delta              decimal.Decimal
	Direction          model.Side
	EstimatedProbability decimal.Decimal
	MarketPrice        decimal.Decimal
	Edge               decimal.Decimal
	Confidence         decimal.Decimal
	RecommendedSide    model.Side
	RecommendedSize    decimal.Decimal
	FromCheapSideFallback bool
}

// HasSignal reports whether a tradeable side was recommended.
func (s Signal) HasSignal() bool { return s.RecommendedSide != model.SideNone && s.RecommendedSide != "" }

// Detector evaluates mispricing signals from spot candle momentum.
type Detector struct {
	cfg Config
}

// New creates a Detector.
func New(cfg Config) *Detector {
	if cfg.MomentumLookback == 0 {
		cfg.MomentumLookback = 5 * time.Minute
	}
	return &Detector{cfg: cfg}
}

// Delta computes (lastClose-firstOpen)/firstOpen over the supplied 1-minute
// spot candles, which must already be restricted to the lookback window and
// ordered oldest-first.
func Delta(candles []model.Candle) decimal.Decimal {
	if len(candles) == 0 {
		return zero
	}
	first := candles[0].Open
	last := candles[len(candles)-1].Close
	if first.IsZero() {
		return zero
	}
	return last.Sub(first).Div(first)
}

// Detect evaluates one market against its recent spot candle window.
// marketDuration is the market's total lifetime, used for the small
// time-to-expiry confidence factor.
func (d *Detector) Detect(market model.Market, candles []model.Candle, now time.Time, marketDuration time.Duration) Signal {
	signalsEvaluatedTotal.Inc()

	delta := Delta(candles)
	absDelta := delta.Abs()

	if absDelta.LessThan(d.cfg.MinBTCChange) {
		if d.cfg.AllowCheapSideFallback && len(candles) == 0 {
			return d.cheapSideFallback(market)
		}
		noClearDirectionTotal.Inc()
		return Signal{Market: market, Delta: delta}
	}

	direction := model.SideDown
	if delta.GreaterThan(zero) {
		direction = model.SideUp
	}

	prob := estimateProbability(absDelta, market.TimeToExpiry(now), marketDuration)

	price := market.NoAsk
	if direction == model.SideUp {
		price = market.YesAsk
	}
	if price.GreaterThan(d.cfg.MaxMarketPrice) {
		return Signal{Market: market, Delta: delta, Direction: direction, EstimatedProbability: prob, MarketPrice: price}
	}

	edge := prob.Sub(price)
	if edge.LessThan(d.cfg.MinEdge) {
		return Signal{Market: market, Delta: delta, Direction: direction, EstimatedProbability: prob, MarketPrice: price, Edge: edge}
	}

	confidence := compoundConfidence(edge, absDelta, market.TimeToExpiry(now), price)

	size := d.cfg.BaseSize
	if d.cfg.ScaleSizeWithEdge {
		scaled := edge.Div(d.cfg.MinEdge).Mul(d.cfg.BaseSize)
		cap3x := d.cfg.BaseSize.Mul(decimal.NewFromInt(3))
		if scaled.GreaterThan(cap3x) {
			scaled = cap3x
		}
		size = scaled
	}

	signalsDetectedTotal.Inc()
	return Signal{
		Market:               market,
		Delta:                delta,
		Direction:            direction,
		EstimatedProbability: prob,
		MarketPrice:          price,
		Edge:                 edge,
		Confidence:           confidence,
		RecommendedSide:      direction,
		RecommendedSize:      size,
	}
}

// estimateProbability maps |delta| to an estimated true probability,
// clipped to [0.55, 0.95] by the base formula, then nudges the figure with a
// small time-to-expiry factor and a strength bonus, re-clipped to
// [0.50, 0.95].
func estimateProbability(absDelta decimal.Decimal, tte, marketDuration time.Duration) decimal.Decimal {
	raw := baseProb.Add(absDelta.Sub(baseOffset).Mul(probSlope))
	clipped := clamp(raw, decimal.NewFromFloat(0.55), probCeil)

	if marketDuration > 0 {
		ratio := float64(tte) / float64(marketDuration)
		if ratio > 0.2 && ratio < 0.6 {
			clipped = clipped.Add(decimal.NewFromFloat(0.02))
		}
	}

	switch {
	case absDelta.GreaterThan(strongMove):
		clipped = clipped.Add(strongBonus)
	case absDelta.GreaterThan(mediumMove):
		clipped = clipped.Add(mediumBonus)
	}

	return clamp(clipped, probFloor, probCeil)
}

// compoundConfidence blends a base confidence with bonuses for edge size,
// delta strength, a 3-8 minute optimal time-to-expiry window, and a lower
// entry price (cheaper sides have more room to move favorably).
func compoundConfidence(edge, absDelta decimal.Decimal, tte time.Duration, price decimal.Decimal) decimal.Decimal {
	conf := half

	if edge.GreaterThan(decimal.NewFromFloat(0.1)) {
		conf = conf.Add(decimal.NewFromFloat(0.15))
	} else if edge.GreaterThan(decimal.NewFromFloat(0.05)) {
		conf = conf.Add(decimal.NewFromFloat(0.08))
	}

	if absDelta.GreaterThan(strongMove) {
		conf = conf.Add(decimal.NewFromFloat(0.1))
	} else if absDelta.GreaterThan(mediumMove) {
		conf = conf.Add(decimal.NewFromFloat(0.05))
	}

	minutes := tte.Minutes()
	if minutes >= 3 && minutes <= 8 {
		conf = conf.Add(decimal.NewFromFloat(0.1))
	}

	if price.LessThan(decimal.NewFromFloat(0.4)) {
		conf = conf.Add(decimal.NewFromFloat(0.05))
	}

	return clamp(conf, confFloor, confCeil)
}

// cheapSideFallback recommends the cheaper side of the market when no spot
// momentum data is available. It must only run when explicitly configured:
// without live spot data backing it, this is not a true mispricing test —
// it would use the winning side as its own oracle if enabled unconditionally.
func (d *Detector) cheapSideFallback(market model.Market) Signal {
	cheapSideFallbacksTotal.Inc()

	side := model.SideDown
	price := market.NoAsk
	if market.YesAsk.LessThan(market.NoAsk) {
		side = model.SideUp
		price = market.YesAsk
	}
	if price.GreaterThan(d.cfg.MaxMarketPrice) || price.IsZero() {
		return Signal{Market: market, FromCheapSideFallback: true}
	}

	return Signal{
		Market:                market,
		Direction:             side,
		MarketPrice:           price,
		Confidence:            confFloor,
		RecommendedSide:       side,
		RecommendedSize:       d.cfg.BaseSize,
		FromCheapSideFallback: true,
	}
}

func clamp(x, lo, hi decimal.Decimal) decimal.Decimal {
	if x.LessThan(lo) {
		return lo
	}
	if x.GreaterThan(hi) {
		return hi
	}
	return x
}

// ToOpportunity converts a Signal with a recommended side into a
// Mispricing-kind Opportunity. Callers must check HasSignal first.
func (s Signal) ToOpportunity() model.Opportunity {
	return model.NewMispricingOpportunity(s.Market, s.EstimatedProbability, s.MarketPrice, s.Edge, s.Confidence, s.RecommendedSize, s.RecommendedSide)
}
