package spread

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func baseMarket(now time.Time) model.Market {
	return model.Market{
		ID:         "m1",
		Venue:      "polymarket",
		YesTokenID: "yes", NoTokenID: "no",
		YesAsk:     d("0.47"),
		NoAsk:      d("0.48"),
		Liquidity:  d("5000"),
		Volume24h:  d("500"),
		EndTime:    now.Add(2 * time.Hour),
		FetchedAt:  now,
	}
}

func TestDetect_EmitsOpportunityWhenSpreadClearsFeesAndThreshold(t *testing.T) {
	now := time.Now()
	cfg := Config{
		MinProfit:          d("0.01"),
		DefaultFeeRate:     d("0"),
		MinTimeToExpiry:    time.Hour,
		MaxSnapshotAge:     5 * time.Minute,
		InvestmentPerTrade: d("100"),
		Logger:             zap.NewNop(),
	}
	det := New(cfg)

	opps := det.Detect(now, []model.Market{baseMarket(now)})
	require.Len(t, opps, 1)
	require.Equal(t, model.OpportunitySpread, opps[0].Kind)
	require.True(t, opps[0].NetProfit.GreaterThan(decimal.Zero))
}

func TestDetect_RejectsWhenGrossNonPositive(t *testing.T) {
	now := time.Now()
	m := baseMarket(now)
	m.YesAsk = d("0.55")
	m.NoAsk = d("0.55")

	det := New(Config{MinProfit: d("0.0"), MaxSnapshotAge: 5 * time.Minute, InvestmentPerTrade: d("100"), Logger: zap.NewNop()})
	opps := det.Detect(now, []model.Market{m})
	require.Empty(t, opps)
}

func TestDetect_SkipsMarketsExpiringWithinOneHour(t *testing.T) {
	now := time.Now()
	m := baseMarket(now)
	m.EndTime = now.Add(30 * time.Minute)

	det := New(Config{MinProfit: d("0.0"), MaxSnapshotAge: 5 * time.Minute, InvestmentPerTrade: d("100"), Logger: zap.NewNop()})
	opps := det.Detect(now, []model.Market{m})
	require.Empty(t, opps)
}

func TestDetect_SkipsStaleMarkets(t *testing.T) {
	now := time.Now()
	m := baseMarket(now)
	m.FetchedAt = now.Add(-10 * time.Minute)

	det := New(Config{MinProfit: d("0.0"), MaxSnapshotAge: time.Minute, InvestmentPerTrade: d("100"), Logger: zap.NewNop()})
	opps := det.Detect(now, []model.Market{m})
	require.Empty(t, opps)
}

func TestDetect_SortsByNetProfitThenLiquidity(t *testing.T) {
	now := time.Now()
	a := baseMarket(now)
	a.ID = "a"
	a.YesAsk, a.NoAsk = d("0.40"), d("0.40")
	a.Liquidity = d("2000")

	b := baseMarket(now)
	b.ID = "b"
	b.YesAsk, b.NoAsk = d("0.40"), d("0.40")
	b.Liquidity = d("9000")

	det := New(Config{MinProfit: d("0.0"), MaxSnapshotAge: 5 * time.Minute, InvestmentPerTrade: d("100"), Logger: zap.NewNop()})
	opps := det.Detect(now, []model.Market{a, b})
	require.Len(t, opps, 2)
	require.True(t, opps[0].NetProfit.Equal(opps[1].NetProfit))
	require.Equal(t, "b", opps[0].Market.ID, "equal net profit ties break toward higher liquidity")
}

func TestDetect_ConfidencePenalizesWideSpreadLowLiquidityLowVolume(t *testing.T) {
	now := time.Now()
	m := baseMarket(now)
	m.YesAsk, m.NoAsk = d("0.40"), d("0.40")
	m.Liquidity = d("500")
	m.Volume24h = d("50")

	det := New(Config{MinProfit: d("0.0"), MaxSnapshotAge: 5 * time.Minute, InvestmentPerTrade: d("100"), Logger: zap.NewNop()})
	opps := det.Detect(now, []model.Market{m})
	require.Len(t, opps, 1)
	require.True(t, opps[0].Confidence.Equal(d("0.4")), "0.8 - 0.2 (gross>0.05) - 0.1 (low liquidity) - 0.1 (low volume)")
}
