package edge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cryptoedge/bot/internal/model"
)

func TestExpiryConfidenceMultiplier(t *testing.T) {
	duration := 15 * time.Minute
	cases := []struct {
		name string
		tte  time.Duration
		want decimal.Decimal
	}{
		{"too early", 13 * time.Minute, decimal.NewFromFloat(0.6)},
		{"sweet spot", 9 * time.Minute, decimal.NewFromFloat(1.0)},
		{"getting late", 4 * time.Minute, decimal.NewFromFloat(0.8)},
		{"near expiry", 90 * time.Second, decimal.NewFromFloat(0.4)},
		{"very near", 30 * time.Second, decimal.NewFromFloat(0.2)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExpiryConfidenceMultiplier(c.tte, duration)
			require.True(t, got.Equal(c.want), "got %s want %s", got, c.want)
		})
	}
}

func TestDetectEdge_RecommendsUpWhenEdgeAndEVClearThresholds(t *testing.T) {
	d := New(Config{
		MinEdge:        decimal.NewFromFloat(0.05),
		MinConfidence:  decimal.NewFromFloat(0.5),
		FeeRate:        decimal.NewFromFloat(0.02),
		KellyFraction:  decimal.NewFromFloat(0.25),
		MaxPositionPct: decimal.NewFromFloat(0.10),
	})

	now := time.Now()
	market := model.Market{
		YesAsk:  decimal.NewFromFloat(0.45),
		NoAsk:   decimal.NewFromFloat(0.53),
		EndTime: now.Add(9 * time.Minute),
	}

	sig := d.DetectEdge(market, decimal.NewFromFloat(0.60), decimal.NewFromFloat(0.8), 15*time.Minute, now)
	require.True(t, sig.HasEdge())
	require.Equal(t, model.SideUp, sig.RecommendedSide)
	require.True(t, sig.RecommendedSize.GreaterThan(decimal.Zero))
	require.True(t, sig.RecommendedSize.LessThanOrEqual(decimal.NewFromFloat(0.10)))
}

func TestDetectEdge_NoEdgeWhenBelowMinConfidence(t *testing.T) {
	d := New(Config{
		MinEdge:        decimal.NewFromFloat(0.05),
		MinConfidence:  decimal.NewFromFloat(0.9),
		FeeRate:        decimal.NewFromFloat(0.02),
		KellyFraction:  decimal.NewFromFloat(0.25),
		MaxPositionPct: decimal.NewFromFloat(0.10),
	})

	now := time.Now()
	market := model.Market{
		YesAsk:  decimal.NewFromFloat(0.45),
		NoAsk:   decimal.NewFromFloat(0.53),
		EndTime: now.Add(9 * time.Minute),
	}

	sig := d.DetectEdge(market, decimal.NewFromFloat(0.60), decimal.NewFromFloat(0.5), 15*time.Minute, now)
	require.False(t, sig.HasEdge())
	require.Equal(t, model.SideNone, sig.RecommendedSide)
	require.True(t, sig.RecommendedSize.IsZero())
}

func TestDetectEdge_SizeCapsAtMaxPositionPct(t *testing.T) {
	d := New(Config{
		MinEdge:        decimal.NewFromFloat(0.01),
		MinConfidence:  decimal.NewFromFloat(0.1),
		FeeRate:        decimal.Zero,
		KellyFraction:  decimal.NewFromFloat(1.0),
		MaxPositionPct: decimal.NewFromFloat(0.05),
	})

	now := time.Now()
	market := model.Market{
		YesAsk:  decimal.NewFromFloat(0.10),
		NoAsk:   decimal.NewFromFloat(0.10),
		EndTime: now.Add(12 * time.Minute),
	}

	sig := d.DetectEdge(market, decimal.NewFromFloat(0.90), decimal.NewFromFloat(1.0), 15*time.Minute, now)
	require.Equal(t, model.SideUp, sig.RecommendedSide)
	require.True(t, sig.RecommendedSize.Equal(decimal.NewFromFloat(0.05)))
}

func TestSignal_ToOpportunity(t *testing.T) {
	now := time.Now()
	market := model.Market{YesAsk: decimal.NewFromFloat(0.45), NoAsk: decimal.NewFromFloat(0.53)}
	sig := Signal{
		Market:             market,
		EstimatedProbUp:    decimal.NewFromFloat(0.6),
		EdgeUp:             decimal.NewFromFloat(0.15),
		EVUp:               decimal.NewFromFloat(0.1),
		AdjustedConfidence: decimal.NewFromFloat(0.8),
		RecommendedSize:    decimal.NewFromFloat(0.05),
		RecommendedSide:    model.SideUp,
		DetectedAt:         now,
	}
	opp := sig.ToOpportunity()
	require.Equal(t, model.OpportunityEdge, opp.Kind)
	require.Equal(t, model.SideUp, opp.RecommendedSide)
}
