package momentum

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cryptoedge/bot/internal/model"
)

func candle(open, close float64) model.Candle {
	return model.Candle{
		Open:  decimal.NewFromFloat(open),
		Close: decimal.NewFromFloat(close),
	}
}

func TestCalculateFromCandles_TooFewCandlesReturnsError(t *testing.T) {
	c := NewCalculator(0.6, 5)
	_, err := c.CalculateFromCandles([]model.Candle{candle(100, 101)}, model.AssetBTC, 15)
	require.Error(t, err)
}

func TestCalculateFromCandles_ZeroVolatilityReturnsCoinFlip(t *testing.T) {
	c := NewCalculator(0.6, 5)
	flat := make([]model.Candle, 5)
	for i := range flat {
		flat[i] = candle(100, 100)
	}
	sig, err := c.CalculateFromCandles(flat, model.AssetBTC, 15)
	require.NoError(t, err)
	require.True(t, sig.ProbabilityUp.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, sig.Confidence.Equal(decimal.NewFromFloat(0.3)))
}

func TestCalculateFromCandles_ConsistentUptrendIsBullish(t *testing.T) {
	c := NewCalculator(0.6, 5)
	candles := []model.Candle{
		candle(100, 101),
		candle(101, 102.2),
		candle(102.2, 103.6),
		candle(103.6, 105.3),
		candle(105.3, 107.2),
	}
	sig, err := c.CalculateFromCandles(candles, model.AssetBTC, 15)
	require.NoError(t, err)
	require.True(t, sig.IsBullish())
	require.Equal(t, 5, sig.SampleSize)
}

func TestSignal_ProbabilityDownComplementsUp(t *testing.T) {
	s := Signal{ProbabilityUp: decimal.NewFromFloat(0.7)}
	require.True(t, s.ProbabilityDown().Equal(decimal.NewFromFloat(0.3)))
}

func TestEnhancedMomentumProbability_BlendsWeightedFactors(t *testing.T) {
	c := NewCalculator(0.6, 5)
	up := []model.Candle{
		candle(100, 101), candle(101, 102.2), candle(102.2, 103.6),
		candle(103.6, 105.3), candle(105.3, 107.2),
	}
	flat := make([]model.Candle, 5)
	for i := range flat {
		flat[i] = candle(100, 100)
	}

	prob, conf, primary := c.EnhancedMomentumProbability(model.AssetBTC, []EnhancedFactor{
		{Candles: up, IntervalMinutes: 15, Weight: 0.4},
		{Candles: flat, IntervalMinutes: 15, Weight: 0.3},
		{Candles: flat, IntervalMinutes: 60, Weight: 0.3},
	})

	require.NotNil(t, primary)
	require.True(t, prob.GreaterThan(decimal.NewFromFloat(0.5)), "uptrend factor should pull blended probability above 0.5")
	require.True(t, conf.GreaterThan(decimal.Zero))
}

func TestEnhancedMomentumProbability_NoFactorsReturnsCoinFlipZeroConfidence(t *testing.T) {
	c := NewCalculator(0.6, 5)
	prob, conf, primary := c.EnhancedMomentumProbability(model.AssetBTC, nil)
	require.True(t, prob.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, conf.IsZero())
	require.Nil(t, primary)
}
