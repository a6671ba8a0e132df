package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
)

func mkt(name string, end time.Time) model.Market {
	return model.Market{ID: name, Name: name, EndTime: end}
}

func TestExtractEntity(t *testing.T) {
	cases := []struct {
		name       string
		marketName string
		wantAsset  model.Asset
		wantPrice  int
		wantDir    Direction
		wantType   EventType
	}{
		{"btc above 100k", "Will BTC be above $100k by Friday?", model.AssetBTC, 100000, DirectionAbove, EventCryptoPrice},
		{"eth below threshold", "Ethereum price below $5,000 this week", model.AssetETH, 5000, DirectionBelow, EventCryptoPrice},
		{"directional up or down", "Bitcoin Up or Down - 3:00PM ET", model.AssetBTC, 0, "", EventDirectional15m},
		{"fed rate", "Will the Fed cut interest rates in March?", "", 0, "", EventFedRate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := ExtractEntity(mkt(c.marketName, time.Now()))
			require.Equal(t, c.wantAsset, e.Asset)
			require.Equal(t, c.wantPrice, e.PriceTarget)
			require.Equal(t, c.wantDir, e.Direction)
			require.Equal(t, c.wantType, e.EventType)
		})
	}
}

func TestMatcher_CryptoPriceRequiresAllFourComponents(t *testing.T) {
	m := New(0.9, zap.NewNop())
	end := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	a := mkt("Will BTC be above $100,000 by Jan 1?", end)
	b := mkt("BTC above $100k on Jan 1", end)

	matches := m.Match([]model.Market{a}, []model.Market{b})
	require.Len(t, matches, 1)
	require.GreaterOrEqual(t, matches[0].Confidence, 0.9)
}

func TestMatcher_DifferentAssetHardRejects(t *testing.T) {
	m := New(0.9, zap.NewNop())
	end := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	a := mkt("Will BTC be above $100,000 by Jan 1?", end)
	b := mkt("Will ETH be above $100,000 by Jan 1?", end)

	matches := m.Match([]model.Market{a}, []model.Market{b})
	require.Empty(t, matches)
}

func TestMatcher_Directional15mRequiresTimeWithin5Minutes(t *testing.T) {
	m := New(0.9, zap.NewNop())
	base := time.Date(2026, 1, 1, 15, 0, 0, 0, time.UTC)

	a := mkt("Bitcoin Up or Down - 3:00PM ET", base)
	close := mkt("BTC Up or Down - 3:00PM ET", base.Add(2*time.Minute))
	far := mkt("BTC Up or Down - 4:00PM ET", base.Add(time.Hour))

	matches := m.Match([]model.Market{a}, []model.Market{close, far})
	require.Len(t, matches, 1)
	require.Equal(t, "BTC Up or Down - 3:00PM ET", matches[0].MarketB.Name)
}

func TestMatcher_MatchAllComparesEveryVenuePair(t *testing.T) {
	m := New(0.9, zap.NewNop())
	end := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := mkt("Will BTC be above $100,000 by Jan 1?", end)

	byVenue := map[model.Venue][]model.Market{
		model.Venue("polymarket"): {a},
		model.Venue("kalshi"):     {mkt("BTC above $100k on Jan 1", end)},
		model.Venue("limitless"):  {mkt("BTC above $100k on Jan 1", end)},
	}

	matches := m.MatchAll(byVenue)
	require.Len(t, matches, 3, "three venues means three pairwise comparisons")
}
