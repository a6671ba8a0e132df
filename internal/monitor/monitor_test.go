package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
)

type fakeRepo struct {
	markets    []model.Market
	orderbooks map[string]model.OrderbookSnapshot
	fetchCalls int
}

func (f *fakeRepo) FetchActiveMarketsWithFreshOrderbook(ctx context.Context, maxAge time.Duration) ([]model.Market, error) {
	f.fetchCalls++
	return f.markets, nil
}
func (f *fakeRepo) LatestOrderbook(ctx context.Context, marketID string) (model.OrderbookSnapshot, error) {
	ob, ok := f.orderbooks[marketID]
	if !ok {
		return model.OrderbookSnapshot{}, errors.New("no orderbook")
	}
	return ob, nil
}
func (f *fakeRepo) MarketByConditionID(ctx context.Context, conditionID string) (model.Market, error) {
	return model.Market{}, nil
}
func (f *fakeRepo) CreatePosition(ctx context.Context, p model.Position) error { return nil }
func (f *fakeRepo) RecordTrade(ctx context.Context, t model.Trade) error      { return nil }
func (f *fakeRepo) ClosePosition(ctx context.Context, id string, status model.PositionStatus) error {
	return nil
}
func (f *fakeRepo) LoadResolutions(ctx context.Context, assets []model.Asset, tf model.Timeframe) ([]model.MarketResolution, error) {
	return nil, nil
}
func (f *fakeRepo) LoadPriceHistory(ctx context.Context, conditionID string, window [2]time.Time) ([]model.PriceSnapshot, error) {
	return nil, nil
}
func (f *fakeRepo) SaveBacktestRun(ctx context.Context, run model.BacktestRun) (int64, error) {
	return 0, nil
}
func (f *fakeRepo) LoadBacktestRun(ctx context.Context, id int64) (model.BacktestRun, error) {
	return model.BacktestRun{}, nil
}
func (f *fakeRepo) SaveSession(ctx context.Context, s *model.BotSession) error { return nil }
func (f *fakeRepo) LoadSession(ctx context.Context, id string) (*model.BotSession, error) {
	return nil, nil
}
func (f *fakeRepo) Close() error { return nil }

type mapCache struct{ m map[string]interface{} }

func (c *mapCache) Get(key string) (interface{}, bool) {
	v, ok := c.m[key]
	return v, ok
}
func (c *mapCache) Set(key string, value interface{}, ttl time.Duration) bool {
	c.m[key] = value
	return true
}
func (c *mapCache) Delete(key string) { delete(c.m, key) }
func (c *mapCache) Clear()            { c.m = map[string]interface{}{} }
func (c *mapCache) Close()            {}

func TestMonitor_DiscoverFiltersExpiredAndHorizon(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{
		markets: []model.Market{
			{ID: "active", Asset: model.AssetBTC, EndTime: now.Add(30 * time.Minute), FetchedAt: now},
			{ID: "expired", Asset: model.AssetBTC, EndTime: now.Add(-time.Minute), FetchedAt: now},
			{ID: "too-far", Asset: model.AssetBTC, EndTime: now.Add(48 * time.Hour), FetchedAt: now},
		},
	}

	mon := New(Config{
		Repository:      repo,
		Assets:          []model.Asset{model.AssetBTC},
		MaxTimeToExpiry: time.Hour,
		MaxSnapshotAge:  time.Minute,
		Logger:          zap.NewNop(),
	})

	out, err := mon.Discover(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "active", out[0].ID)

	mkt, ok := mon.ByID("active")
	require.True(t, ok)
	require.Equal(t, model.AssetBTC, mkt.Asset)

	_, ok = mon.ByID("expired")
	require.False(t, ok)
}

func TestMonitor_DiscoverUsesCacheUntilForceRefresh(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{
		markets: []model.Market{
			{ID: "m1", Asset: model.AssetETH, EndTime: now.Add(time.Hour), FetchedAt: now},
		},
	}
	mon := New(Config{
		Repository:      repo,
		Cache:           &mapCache{m: map[string]interface{}{}},
		MaxTimeToExpiry: 2 * time.Hour,
		Logger:          zap.NewNop(),
	})

	_, err := mon.Discover(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, repo.fetchCalls)

	_, err = mon.Discover(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, repo.fetchCalls, "second call is served from the cache")

	_, err = mon.Discover(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 2, repo.fetchCalls)
}

func TestMonitor_UnknownAssetFallsBackToOther(t *testing.T) {
	require.Equal(t, model.AssetOther, model.ParseAsset("DOGECOIN_TO_THE_MOON"))
	require.Equal(t, model.AssetBTC, model.ParseAsset("BTC"))
}

func TestMonitor_UpdateAllPricesSkipsFailedMarketsButContinues(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{
		orderbooks: map[string]model.OrderbookSnapshot{
			"m1": {TokenID: "yes-1", BestBid: decimal.NewFromFloat(0.4), BestAsk: decimal.NewFromFloat(0.42), CapturedAt: now},
		},
	}
	mon := New(Config{Repository: repo, Logger: zap.NewNop()})

	markets := []model.Market{
		{ID: "m1", YesTokenID: "yes-1", NoTokenID: "no-1"},
		{ID: "missing", YesTokenID: "yes-2", NoTokenID: "no-2"},
	}
	mon.UpdateAllPrices(context.Background(), markets)

	require.True(t, markets[0].YesAsk.Equal(decimal.NewFromFloat(0.42)))
	require.True(t, markets[1].YesAsk.IsZero(), "missing orderbook leaves the market's price untouched")
}
