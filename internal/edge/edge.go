// Package edge compares an externally estimated probability against a
// market's implied price and recommends a side, size and expected value.
// It is purely functional: the same inputs always produce the same Signal.
package edge

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/quant"
)

var (
	zero     = decimal.Zero
	one      = decimal.NewFromInt(1)
	pt6      = decimal.NewFromFloat(0.6)
	pt8      = decimal.NewFromFloat(0.8)
	ptPoint4 = decimal.NewFromFloat(0.4)
	pt2      = decimal.NewFromFloat(0.2)
)

// ExpiryConfidenceMultiplier scales a confidence estimate by how far a
// market is through its lifetime. Momentum signals are least reliable right
// after a market opens and right before it closes.
func ExpiryConfidenceMultiplier(timeToExpiry, marketDuration time.Duration) decimal.Decimal {
	if marketDuration <= 0 {
		return decimal.NewFromFloat(0.5)
	}
	ratio := float64(timeToExpiry) / float64(marketDuration)
	switch {
	case ratio > 0.8:
		return pt6
	case ratio > 0.4:
		return one
	case ratio > 0.2:
		return pt8
	case ratio > 0.07:
		return ptPoint4
	default:
		return pt2
	}
}

// Config configures a Detector.
type Config struct {
	MinEdge        decimal.Decimal
	MinConfidence  decimal.Decimal
	FeeRate        decimal.Decimal
	KellyFraction  decimal.Decimal
	MaxPositionPct decimal.Decimal
}

// Signal is the full edge analysis for one market at one point in time.
type Signal struct {
	Market               model.Market
	EstimatedProbUp      decimal.Decimal
	EstimatedProbDown    decimal.Decimal
	EdgeUp               decimal.Decimal
	EdgeDown             decimal.Decimal
	Confidence           decimal.Decimal
	AdjustedConfidence   decimal.Decimal
	RecommendedSide      model.Side
	RecommendedSize      decimal.Decimal
	EVUp                 decimal.Decimal
	EVDown               decimal.Decimal
	TimeToExpiry         time.Duration
	ExpiryMultiplier     decimal.Decimal
	DetectedAt           time.Time
}

// HasEdge reports whether a tradeable side was recommended.
func (s Signal) HasEdge() bool { return s.RecommendedSide != model.SideNone && s.RecommendedSide != "" }

// BestEdge is the larger of the absolute UP/DOWN edges.
func (s Signal) BestEdge() decimal.Decimal {
	up, down := s.EdgeUp.Abs(), s.EdgeDown.Abs()
	if up.GreaterThan(down) {
		return up
	}
	return down
}

// BestEV is the larger of the two fee-adjusted expected values.
func (s Signal) BestEV() decimal.Decimal {
	if s.EVUp.GreaterThan(s.EVDown) {
		return s.EVUp
	}
	return s.EVDown
}

// Detector evaluates edge signals against configured thresholds.
type Detector struct {
	cfg Config
}

// New creates a Detector.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// DetectEdge evaluates market against an estimated probability of UP and
// the estimator's confidence, over a market lifetime of marketDuration.
func (d *Detector) DetectEdge(market model.Market, estimatedProbUp, confidence decimal.Decimal, marketDuration time.Duration, now time.Time) Signal {
	signalsComputedTotal.Inc()

	marketProbUp := market.YesAsk
	marketProbDown := market.NoAsk
	estimatedProbDown := one.Sub(estimatedProbUp)

	edgeUp := estimatedProbUp.Sub(marketProbUp)
	edgeDown := estimatedProbDown.Sub(marketProbDown)

	tte := market.TimeToExpiry(now)
	expiryMult := ExpiryConfidenceMultiplier(tte, marketDuration)
	adjustedConfidence := confidence.Mul(expiryMult)

	feeAdjustedEVUp := edgeUp.Sub(marketProbUp.Mul(d.cfg.FeeRate))
	feeAdjustedEVDown := edgeDown.Sub(marketProbDown.Mul(d.cfg.FeeRate))

	side := model.SideNone
	size := zero

	if adjustedConfidence.GreaterThanOrEqual(d.cfg.MinConfidence) {
		if edgeUp.GreaterThanOrEqual(d.cfg.MinEdge) && feeAdjustedEVUp.GreaterThan(zero) {
			side = model.SideUp
			size = d.kellySize(estimatedProbUp, marketProbUp, adjustedConfidence)
		} else if edgeDown.GreaterThanOrEqual(d.cfg.MinEdge) && feeAdjustedEVDown.GreaterThan(zero) {
			side = model.SideDown
			size = d.kellySize(estimatedProbDown, marketProbDown, adjustedConfidence)
		}
	}

	if side != model.SideNone {
		signalsWithEdgeTotal.Inc()
	}

	return Signal{
		Market:             market,
		EstimatedProbUp:    estimatedProbUp,
		EstimatedProbDown:  estimatedProbDown,
		EdgeUp:             edgeUp,
		EdgeDown:           edgeDown,
		Confidence:         confidence,
		AdjustedConfidence: adjustedConfidence,
		RecommendedSide:    side,
		RecommendedSize:    size.Round(4),
		EVUp:               feeAdjustedEVUp,
		EVDown:             feeAdjustedEVDown,
		TimeToExpiry:       tte,
		ExpiryMultiplier:   expiryMult,
		DetectedAt:         now,
	}
}

// kellySize applies the fee-adjusted Kelly fraction (quant.Kelly), the
// configured kelly fraction and the expiry-adjusted confidence, capped at
// MaxPositionPct.
func (d *Detector) kellySize(estimatedProb, marketPrice, adjustedConfidence decimal.Decimal) decimal.Decimal {
	kelly := quant.Kelly(estimatedProb, marketPrice, d.cfg.FeeRate)
	size := kelly.Mul(d.cfg.KellyFraction).Mul(adjustedConfidence)
	if size.GreaterThan(d.cfg.MaxPositionPct) {
		return d.cfg.MaxPositionPct
	}
	return size
}

// ToOpportunity converts a Signal with a recommended side into an
// Edge-kind Opportunity. Callers must check HasEdge first.
func (s Signal) ToOpportunity() model.Opportunity {
	price := s.Market.YesAsk
	pHat := s.EstimatedProbUp
	edge := s.EdgeUp
	ev := s.EVUp
	if s.RecommendedSide == model.SideDown {
		price = s.Market.NoAsk
		pHat = s.EstimatedProbDown
		edge = s.EdgeDown
		ev = s.EVDown
	}
	return model.NewEdgeOpportunity(s.Market, pHat, price, edge, ev, s.AdjustedConfidence, s.RecommendedSize, s.RecommendedSide)
}
