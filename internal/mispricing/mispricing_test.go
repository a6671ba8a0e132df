package mispricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cryptoedge/bot/internal/model"
)

func candleSeq(opens, closes []float64) []model.Candle {
	out := make([]model.Candle, len(opens))
	for i := range opens {
		out[i] = model.Candle{
			Open:  decimal.NewFromFloat(opens[i]),
			Close: decimal.NewFromFloat(closes[i]),
		}
	}
	return out
}

func TestDelta(t *testing.T) {
	candles := candleSeq([]float64{50000, 50100}, []float64{50100, 50600})
	d := Delta(candles)
	require.True(t, d.Equal(decimal.NewFromFloat(0.012)), "got %s", d)
}

func TestDelta_EmptyReturnsZero(t *testing.T) {
	require.True(t, Delta(nil).IsZero())
}

func TestDetect_NoClearDirectionBelowThreshold(t *testing.T) {
	d := New(Config{
		MinBTCChange:   decimal.NewFromFloat(0.003),
		MaxMarketPrice: decimal.NewFromFloat(0.9),
		MinEdge:        decimal.NewFromFloat(0.05),
	})
	candles := candleSeq([]float64{50000}, []float64{50010})
	sig := d.Detect(model.Market{}, candles, time.Now(), time.Hour)
	require.False(t, sig.HasSignal())
	require.False(t, sig.FromCheapSideFallback)
}

func TestDetect_RecommendsUpOnStrongPositiveDelta(t *testing.T) {
	d := New(Config{
		MinBTCChange:   decimal.NewFromFloat(0.003),
		MaxMarketPrice: decimal.NewFromFloat(0.9),
		MinEdge:        decimal.NewFromFloat(0.05),
		BaseSize:       decimal.NewFromFloat(0.02),
	})
	now := time.Now()
	market := model.Market{
		YesAsk:  decimal.NewFromFloat(0.55),
		NoAsk:   decimal.NewFromFloat(0.50),
		EndTime: now.Add(5 * time.Minute),
	}
	candles := candleSeq([]float64{50000}, []float64{50600})

	sig := d.Detect(market, candles, now, 15*time.Minute)
	require.True(t, sig.HasSignal())
	require.Equal(t, model.SideUp, sig.RecommendedSide)
	require.True(t, sig.EstimatedProbability.GreaterThan(market.YesAsk))
}

func TestDetect_RejectsWhenPriceAboveMax(t *testing.T) {
	d := New(Config{
		MinBTCChange:   decimal.NewFromFloat(0.003),
		MaxMarketPrice: decimal.NewFromFloat(0.5),
		MinEdge:        decimal.NewFromFloat(0.05),
	})
	now := time.Now()
	market := model.Market{
		YesAsk:  decimal.NewFromFloat(0.90),
		NoAsk:   decimal.NewFromFloat(0.05),
		EndTime: now.Add(5 * time.Minute),
	}
	candles := candleSeq([]float64{50000}, []float64{50600})

	sig := d.Detect(market, candles, now, 15*time.Minute)
	require.False(t, sig.HasSignal())
}

func TestDetect_ScalesSizeWithEdgeCappedAt3x(t *testing.T) {
	d := New(Config{
		MinBTCChange:      decimal.NewFromFloat(0.003),
		MaxMarketPrice:    decimal.NewFromFloat(0.9),
		MinEdge:           decimal.NewFromFloat(0.01),
		ScaleSizeWithEdge: true,
		BaseSize:          decimal.NewFromFloat(0.01),
	})
	now := time.Now()
	market := model.Market{
		YesAsk:  decimal.NewFromFloat(0.3),
		NoAsk:   decimal.NewFromFloat(0.3),
		EndTime: now.Add(5 * time.Minute),
	}
	candles := candleSeq([]float64{50000}, []float64{51000})

	sig := d.Detect(market, candles, now, 15*time.Minute)
	require.True(t, sig.HasSignal())
	require.True(t, sig.RecommendedSize.LessThanOrEqual(decimal.NewFromFloat(0.03)))
}

func TestDetect_CheapSideFallbackOnlyWhenEnabled(t *testing.T) {
	cfgDisabled := Config{
		MinBTCChange:   decimal.NewFromFloat(0.003),
		MaxMarketPrice: decimal.NewFromFloat(0.9),
	}
	d := New(cfgDisabled)
	market := model.Market{YesAsk: decimal.NewFromFloat(0.4), NoAsk: decimal.NewFromFloat(0.55)}
	sig := d.Detect(market, nil, time.Now(), time.Hour)
	require.False(t, sig.HasSignal())
	require.False(t, sig.FromCheapSideFallback)

	cfgEnabled := cfgDisabled
	cfgEnabled.AllowCheapSideFallback = true
	cfgEnabled.BaseSize = decimal.NewFromFloat(0.01)
	d2 := New(cfgEnabled)
	sig2 := d2.Detect(market, nil, time.Now(), time.Hour)
	require.True(t, sig2.HasSignal())
	require.True(t, sig2.FromCheapSideFallback)
	require.Equal(t, model.SideUp, sig2.RecommendedSide)
}

func TestSignal_ToOpportunity(t *testing.T) {
	market := model.Market{YesAsk: decimal.NewFromFloat(0.4)}
	sig := Signal{
		Market:               market,
		EstimatedProbability: decimal.NewFromFloat(0.7),
		MarketPrice:          decimal.NewFromFloat(0.4),
		Edge:                 decimal.NewFromFloat(0.3),
		Confidence:           decimal.NewFromFloat(0.6),
		RecommendedSide:      model.SideUp,
		RecommendedSize:      decimal.NewFromFloat(0.02),
	}
	opp := sig.ToOpportunity()
	require.Equal(t, model.OpportunityMispricing, opp.Kind)
	require.Equal(t, model.SideUp, opp.RecommendedSide)
}
