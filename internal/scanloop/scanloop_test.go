package scanloop

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/execution"
	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/monitor"
	"github.com/cryptoedge/bot/internal/repository"
	"github.com/cryptoedge/bot/internal/spread"
)

func spreadMarket(id string, endTime time.Time) model.Market {
	return model.Market{
		ID:         id,
		Venue:      "poly",
		Asset:      model.AssetBTC,
		YesTokenID: "yes-" + id,
		NoTokenID:  "no-" + id,
		YesAsk:     decimal.NewFromFloat(0.40),
		NoAsk:      decimal.NewFromFloat(0.45),
		Liquidity:  decimal.NewFromInt(5000),
		Volume24h:  decimal.NewFromInt(1000),
		EndTime:    endTime,
		FetchedAt:  time.Now(),
	}
}

func newTestLoop(t *testing.T, repo *repository.ConsoleRepository) *Loop {
	t.Helper()
	logger := zap.NewNop()
	mon := monitor.New(monitor.Config{Repository: repo, Assets: []model.Asset{model.AssetBTC}, MaxTimeToExpiry: 24 * time.Hour, MaxSnapshotAge: time.Hour, Logger: logger})
	spreadDet := spread.New(spread.Config{MinProfit: decimal.NewFromFloat(0.01), DefaultFeeRate: decimal.NewFromFloat(0.02), MinTimeToExpiry: 0, MaxSnapshotAge: time.Hour, InvestmentPerTrade: decimal.NewFromInt(50), Logger: logger})
	session := model.NewBotSession(decimal.NewFromInt(1000))
	exec := execution.New(execution.Config{
		Repository: repo, Session: session,
		MaxPositionSize: decimal.NewFromInt(200), MaxTotalExposure: decimal.NewFromInt(500),
		MinTradeSize: decimal.NewFromInt(10), FeeRate: decimal.NewFromFloat(0.02),
		DryRun: true, Logger: logger,
	})
	return New(Config{
		Repository: repo, Monitor: mon, SpreadDetector: spreadDet, Executor: exec,
		PollInterval: time.Second, ErrorBackoff: time.Second, Logger: logger,
	})
}

func TestTick_OpensBestSpreadOpportunity(t *testing.T) {
	repo := repository.NewConsoleRepository(zap.NewNop())
	repo.Seed([]model.Market{spreadMarket("m1", time.Now().Add(2*time.Hour))})
	loop := newTestLoop(t, repo)

	require.Equal(t, StateIdle, loop.State())
	err := loop.Tick(context.Background(), false)
	require.NoError(t, err)
	require.True(t, loop.executor.HasOpenPosition("m1"))
}

func TestTick_DoesNotOpenSecondPositionOnSameMarket(t *testing.T) {
	repo := repository.NewConsoleRepository(zap.NewNop())
	repo.Seed([]model.Market{spreadMarket("m1", time.Now().Add(2*time.Hour))})
	loop := newTestLoop(t, repo)

	require.NoError(t, loop.Tick(context.Background(), false))
	require.NoError(t, loop.Tick(context.Background(), true))

	exposure := loop.executor.Session().OpenExposure()
	require.True(t, exposure.Equal(decimal.NewFromInt(200))) // single position at the default trade size, not doubled
}

func TestRankOpportunities_OrdersByNetProfitThenLiquidity(t *testing.T) {
	loop := &Loop{}
	opps := []model.Opportunity{
		{Kind: model.OpportunitySpread, NetProfit: decimal.NewFromFloat(1), Market: model.Market{ID: "b", Liquidity: decimal.NewFromInt(10)}},
		{Kind: model.OpportunitySpread, NetProfit: decimal.NewFromFloat(2), Market: model.Market{ID: "a", Liquidity: decimal.NewFromInt(5)}},
	}
	loop.rankOpportunities(opps)
	require.Equal(t, "a", opps[0].Market.ID)
}

func TestSettleExpired_SkipsUnresolvedMarkets(t *testing.T) {
	repo := repository.NewConsoleRepository(zap.NewNop())
	loop := newTestLoop(t, repo)

	expiredMarket := spreadMarket("m1", time.Now().Add(-time.Minute))
	expiredMarket.Resolved = false
	opp := model.NewSpreadOpportunity(expiredMarket, decimal.NewFromFloat(0.4), decimal.NewFromFloat(0.45),
		decimal.NewFromInt(50), decimal.NewFromFloat(0.133), decimal.NewFromFloat(0.15), decimal.NewFromFloat(0.017),
		decimal.NewFromFloat(23), decimal.NewFromFloat(27), decimal.NewFromFloat(0.8))
	_, err := loop.executor.ExecuteSpreadTrade(context.Background(), opp, decimal.NewFromInt(50))
	require.NoError(t, err)

	markets := map[string]model.Market{"m1": expiredMarket}
	anyExpired := loop.settleExpired(context.Background(), markets, time.Now())
	require.True(t, anyExpired)
	require.True(t, loop.executor.HasOpenPosition("m1")) // still open: market not resolved yet
}
