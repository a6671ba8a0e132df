// Package momentum estimates the probability that a crypto asset's price
// will be higher at the end of an interval than at its start, from a
// recency-weighted blend of candle returns.
package momentum

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/quant"
)

var half = decimal.NewFromFloat(0.5)

// Signal is the result of one momentum calculation.
type Signal struct {
	ProbabilityUp    decimal.Decimal
	Confidence       decimal.Decimal
	MomentumScore    decimal.Decimal
	Volatility       decimal.Decimal
	TrendConsistency decimal.Decimal
	SampleSize       int
	Asset            model.Asset
	IntervalMinutes  int
	Timestamp        time.Time
}

// ProbabilityDown is 1 - ProbabilityUp.
func (s Signal) ProbabilityDown() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(s.ProbabilityUp)
}

// IsBullish reports whether the signal favors an upward move.
func (s Signal) IsBullish() bool {
	return s.ProbabilityUp.GreaterThan(half)
}

// IsStrongSignal reports whether the probability is more than 10 points
// away from a coin flip.
func (s Signal) IsStrongSignal() bool {
	diff := s.ProbabilityUp.Sub(half).Abs()
	return diff.GreaterThan(decimal.NewFromFloat(0.1))
}

// Calculator turns a candle sequence into a Signal.
type Calculator struct {
	RecentWeight float64 // weight given to the last 3 candles, default 0.6
	MinCandles   int     // minimum candles required, default 5
}

// NewCalculator creates a Calculator with the given parameters.
func NewCalculator(recentWeight float64, minCandles int) *Calculator {
	if recentWeight == 0 {
		recentWeight = 0.6
	}
	if minCandles == 0 {
		minCandles = 5
	}
	return &Calculator{RecentWeight: recentWeight, MinCandles: minCandles}
}

// CalculateFromCandles computes a momentum Signal from candles ordered
// oldest-first. Returns a Data-kind error if fewer than MinCandles are
// supplied.
func (c *Calculator) CalculateFromCandles(candles []model.Candle, asset model.Asset, intervalMinutes int) (*Signal, error) {
	if len(candles) < c.MinCandles {
		insufficientCandlesTotal.Inc()
		return nil, model.NewError(model.ErrData, "momentum.calculate",
			fmt.Errorf("insufficient candles: %d < %d", len(candles), c.MinCandles))
	}

	returns := make([]float64, len(candles))
	for i, candle := range candles {
		r, _ := candle.Return().Float64()
		returns[i] = r
	}

	volatility := sampleStdev(returns)
	now := time.Now()

	if volatility == 0 {
		zeroVolatilityTotal.Inc()
		signalsComputedTotal.Inc()
		return &Signal{
			ProbabilityUp:    half,
			Confidence:       decimal.NewFromFloat(0.3),
			MomentumScore:    decimal.Zero,
			Volatility:       decimal.Zero,
			TrendConsistency: half,
			SampleSize:       len(candles),
			Asset:            asset,
			IntervalMinutes:  intervalMinutes,
			Timestamp:        now,
		}, nil
	}

	splitIdx := len(returns) - 3
	if splitIdx < 1 {
		splitIdx = 1
	}
	recent := returns[splitIdx:]
	older := returns[:splitIdx]

	recentAvg := meanOf(recent)
	olderAvg := meanOf(older)

	weightedMomentum := c.RecentWeight*recentAvg + (1-c.RecentWeight)*olderAvg
	zScore := weightedMomentum / volatility
	probUp := quant.NormalCDF(zScore)

	bullishCount := 0
	for _, r := range returns {
		if r > 0 {
			bullishCount++
		}
	}
	trendConsistency := float64(bullishCount) / float64(len(returns))

	consistencyAlignment := 1 - math.Abs(trendConsistency-probUp)
	sampleFactor := math.Min(1.0, float64(len(candles))/20)
	volatilityFactor := 1 - math.Min(1.0, volatility*10)

	confidence := 0.5*consistencyAlignment + 0.3*sampleFactor + 0.2*volatilityFactor
	confidence = math.Max(0.1, math.Min(1.0, confidence))

	signalsComputedTotal.Inc()
	return &Signal{
		ProbabilityUp:    round4(probUp),
		Confidence:       round4(confidence),
		MomentumScore:    round4(zScore),
		Volatility:       decimal.NewFromFloat(volatility).Round(6),
		TrendConsistency: round4(trendConsistency),
		SampleSize:       len(candles),
		Asset:            asset,
		IntervalMinutes:  intervalMinutes,
		Timestamp:        now,
	}, nil
}

// EnhancedFactor pairs a pre-fetched candle window with the interval it
// represents and the blend weight it contributes.
type EnhancedFactor struct {
	Candles         []model.Candle
	IntervalMinutes int
	Weight          float64
}

// EnhancedMomentumProbability blends short-term, medium-term and
// higher-timeframe signals into one probability/confidence pair. The
// caller supplies each window already fetched (short: 5 candles/0.4,
// medium: 20 candles/0.3, higher timeframe: 5 candles/0.3), since this
// package has no venue client of its own.
func (c *Calculator) EnhancedMomentumProbability(asset model.Asset, factors []EnhancedFactor) (decimal.Decimal, decimal.Decimal, *Signal) {
	type weighted struct {
		prob, conf float64
		weight     float64
	}
	var blend []weighted
	var primary *Signal

	for _, f := range factors {
		if len(f.Candles) == 0 {
			continue
		}
		sig, err := c.CalculateFromCandles(f.Candles, asset, f.IntervalMinutes)
		if err != nil {
			continue
		}
		p, _ := sig.ProbabilityUp.Float64()
		conf, _ := sig.Confidence.Float64()
		blend = append(blend, weighted{prob: p, conf: conf, weight: f.Weight})
		if primary == nil {
			primary = sig
		}
	}

	if len(blend) == 0 {
		return half, decimal.Zero, nil
	}

	totalWeight := 0.0
	probSum := 0.0
	confSum := 0.0
	for _, b := range blend {
		totalWeight += b.weight
		probSum += b.prob * b.weight
		confSum += b.conf * b.weight
	}

	return round4(probSum / totalWeight), round4(confSum / totalWeight), primary
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := meanOf(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

func round4(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(4)
}
