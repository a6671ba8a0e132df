package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/repository"
)

func seedRepo(t *testing.T) *repository.ConsoleRepository {
	t.Helper()
	return repository.NewConsoleRepository(zap.NewNop())
}

func TestExpiryScalper_SignalsOnSkewAndTradesWithIt(t *testing.T) {
	s := ExpiryScalper{Threshold: decimal.NewFromFloat(0.75)}
	history := []model.PriceSnapshot{{YesPrice: decimal.NewFromFloat(0.80), NoPrice: decimal.NewFromFloat(0.20)}}
	require.True(t, s.ShouldSignal(history))
	require.Equal(t, model.TradeSideYes, s.TradeSide(history))
	require.Equal(t, model.OrderTypeMarket, s.OrderType())
}

func TestContrarianScalper_TradesAgainstSkew(t *testing.T) {
	s := ContrarianScalper{Threshold: decimal.NewFromFloat(0.75), LimitPrice: decimal.NewFromFloat(0.10)}
	history := []model.PriceSnapshot{{YesPrice: decimal.NewFromFloat(0.80), NoPrice: decimal.NewFromFloat(0.20)}}
	require.True(t, s.ShouldSignal(history))
	require.Equal(t, model.TradeSideNo, s.TradeSide(history))
	require.Equal(t, model.OrderTypeLimit, s.OrderType())
	require.True(t, s.OrderPrice(history, model.TradeSideNo).Equal(decimal.NewFromFloat(0.10)))
}

func TestMomentumContrarian_SignalsOnlyAfterReversal(t *testing.T) {
	s := MomentumContrarian{ReversalThreshold: decimal.NewFromFloat(0.1)}
	history := []model.PriceSnapshot{
		{YesPrice: decimal.NewFromFloat(0.70), NoPrice: decimal.NewFromFloat(0.30)},
		{YesPrice: decimal.NewFromFloat(0.85), NoPrice: decimal.NewFromFloat(0.15)},
		{YesPrice: decimal.NewFromFloat(0.72), NoPrice: decimal.NewFromFloat(0.28)},
	}
	require.True(t, s.ShouldSignal(history))
	require.Equal(t, model.TradeSideNo, s.TradeSide(history))
}

func TestBinanceMispricing_NeverSignalsWithoutFallback(t *testing.T) {
	s := BinanceMispricing{AllowCheapSideFallback: false, MaxMarketPrice: decimal.NewFromFloat(0.5)}
	history := []model.PriceSnapshot{{YesPrice: decimal.NewFromFloat(0.30), NoPrice: decimal.NewFromFloat(0.70)}}
	require.False(t, s.ShouldSignal(history))
}

func TestSimulator_MarketOrderAlwaysFills(t *testing.T) {
	repo := seedRepo(t)
	now := time.Now()
	res := model.MarketResolution{ConditionID: "c1", Asset: model.AssetBTC, Timeframe: model.TimeframeHourly, EndTime: now, WinningSide: model.TradeSideYes}
	repo.SeedResolutions([]model.MarketResolution{res})
	repo.SeedPriceHistory("c1", []model.PriceSnapshot{
		{ConditionID: "c1", YesPrice: decimal.NewFromFloat(0.80), NoPrice: decimal.NewFromFloat(0.20), Timestamp: now.Add(-5 * time.Minute)},
	})

	sim := New(Config{
		Repository:   repo,
		Strategy:     ExpiryScalper{Threshold: decimal.NewFromFloat(0.75)},
		ExpiryWindow: 10 * time.Minute,
		PositionSize: decimal.NewFromInt(100),
		Logger:       zap.NewNop(),
	})

	run, err := sim.Run(context.Background(), []model.Asset{model.AssetBTC}, model.TimeframeHourly, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, run.Metrics.OrdersFilled)
	require.Equal(t, 1, run.Metrics.WinningTrades)
	require.True(t, run.Metrics.NetPnL.GreaterThan(decimal.Zero))
}

func TestSimulator_LimitOrderOnlyFillsWhenSideLoses(t *testing.T) {
	repo := seedRepo(t)
	now := time.Now()
	res := model.MarketResolution{ConditionID: "c2", Asset: model.AssetBTC, Timeframe: model.TimeframeHourly, EndTime: now, WinningSide: model.TradeSideYes}
	repo.SeedResolutions([]model.MarketResolution{res})
	repo.SeedPriceHistory("c2", []model.PriceSnapshot{
		{ConditionID: "c2", YesPrice: decimal.NewFromFloat(0.80), NoPrice: decimal.NewFromFloat(0.20), Timestamp: now.Add(-5 * time.Minute)},
	})

	sim := New(Config{
		Repository:   repo,
		Strategy:     ContrarianScalper{Threshold: decimal.NewFromFloat(0.75), LimitPrice: decimal.NewFromFloat(0.05)},
		ExpiryWindow: 10 * time.Minute,
		PositionSize: decimal.NewFromInt(100),
		Logger:       zap.NewNop(),
	})

	run, err := sim.Run(context.Background(), []model.Asset{model.AssetBTC}, model.TimeframeHourly, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	// contrarian trades NO; NO loses (winner is YES) so the LIMIT order fills, at a loss.
	require.Equal(t, 1, run.Metrics.OrdersPlaced)
	require.Equal(t, 1, run.Metrics.OrdersFilled)
	require.Equal(t, 1, run.Metrics.LosingTrades)
}

func TestSimulator_SkipsResolutionWithNoHistoryWhenSyntheticDisabled(t *testing.T) {
	repo := seedRepo(t)
	now := time.Now()
	res := model.MarketResolution{ConditionID: "c3", Asset: model.AssetBTC, Timeframe: model.TimeframeHourly, EndTime: now, WinningSide: model.TradeSideYes}
	repo.SeedResolutions([]model.MarketResolution{res})

	sim := New(Config{
		Repository:             repo,
		Strategy:               ExpiryScalper{Threshold: decimal.NewFromFloat(0.75)},
		ExpiryWindow:           10 * time.Minute,
		PositionSize:           decimal.NewFromInt(100),
		AllowSyntheticSnapshot: false,
		Logger:                 zap.NewNop(),
	})

	run, err := sim.Run(context.Background(), []model.Asset{model.AssetBTC}, model.TimeframeHourly, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 0, run.Metrics.OrdersPlaced)
}

func TestMaxDrawdown_ZeroUntilEquityTurnsPositive(t *testing.T) {
	trades := []model.BacktestTrade{
		{PnL: decimal.NewFromInt(-10)},
		{PnL: decimal.NewFromInt(-5)},
	}
	require.True(t, maxDrawdown(trades).IsZero())
}

func TestMaxDrawdown_MeasuredFromPositivePeak(t *testing.T) {
	trades := []model.BacktestTrade{
		{PnL: decimal.NewFromInt(20)},
		{PnL: decimal.NewFromInt(-8)},
	}
	require.True(t, maxDrawdown(trades).Equal(decimal.NewFromInt(8)))
}
