package execution

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

func newTestExecutor(t *testing.T) (*Executor, *repository.ConsoleRepository) {
	t.Helper()
	repo := repository.NewConsoleRepository(zap.NewNop())
	session := model.NewBotSession(decimal.NewFromInt(1000))
	ex := New(Config{
		Repository:       repo,
		Session:          session,
		MaxPositionSize:  decimal.NewFromInt(200),
		MaxTotalExposure: decimal.NewFromInt(500),
		MinTradeSize:     decimal.NewFromInt(10),
		FeeRate:          decimal.NewFromFloat(0.02),
		DryRun:           true,
		Logger:           zap.NewNop(),
	})
	return ex, repo
}

func testMarket(id string) model.Market {
	return model.Market{
		ID:         id,
		YesTokenID: "yes-" + id,
		NoTokenID:  "no-" + id,
		YesAsk:     decimal.NewFromFloat(0.45),
		NoAsk:      decimal.NewFromFloat(0.50),
		EndTime:    time.Now().Add(time.Hour),
	}
}

func TestCanTrade_RespectsBalanceAndCaps(t *testing.T) {
	ex, _ := newTestExecutor(t)
	require.True(t, ex.CanTrade(decimal.NewFromInt(100)))
	require.False(t, ex.CanTrade(decimal.NewFromInt(10000))) // exceeds balance
	require.False(t, ex.CanTrade(decimal.NewFromInt(250)))   // exceeds max position size
}

func TestExecuteSpreadTrade_OpensEqualSharePosition(t *testing.T) {
	ex, _ := newTestExecutor(t)
	mkt := testMarket("m1")
	opp := model.NewSpreadOpportunity(mkt, decimal.NewFromFloat(0.45), decimal.NewFromFloat(0.50),
		decimal.NewFromInt(100), decimal.NewFromFloat(0.0405), decimal.NewFromFloat(0.05), decimal.NewFromFloat(0.0095),
		decimal.NewFromFloat(47.37), decimal.NewFromFloat(52.63), decimal.NewFromFloat(0.9))

	pos, err := ex.ExecuteSpreadTrade(context.Background(), opp, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Equal(t, model.PositionOpen, pos.Status)
	require.True(t, pos.YesShares.Sub(pos.NoShares).Abs().LessThan(decimal.NewFromFloat(0.01)))
	require.True(t, ex.HasOpenPosition("m1"))
	require.True(t, ex.Session().CheckBalanceIdentity())
}

func TestExecuteSpreadTrade_RejectsSecondPositionOnSameMarket(t *testing.T) {
	ex, _ := newTestExecutor(t)
	mkt := testMarket("m1")
	opp := model.NewSpreadOpportunity(mkt, decimal.NewFromFloat(0.45), decimal.NewFromFloat(0.50),
		decimal.NewFromInt(100), decimal.NewFromFloat(0.0405), decimal.NewFromFloat(0.05), decimal.NewFromFloat(0.0095),
		decimal.NewFromFloat(47.37), decimal.NewFromFloat(52.63), decimal.NewFromFloat(0.9))

	_, err := ex.ExecuteSpreadTrade(context.Background(), opp, decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = ex.ExecuteSpreadTrade(context.Background(), opp, decimal.NewFromInt(50))
	require.Error(t, err)
}

func TestExecuteDirectionalTrade_BuysRecommendedSideOnly(t *testing.T) {
	ex, _ := newTestExecutor(t)
	mkt := testMarket("m2")
	opp := model.NewEdgeOpportunity(mkt, decimal.NewFromFloat(0.65), decimal.NewFromFloat(0.50),
		decimal.NewFromFloat(0.15), decimal.NewFromFloat(0.1), decimal.NewFromFloat(0.8),
		decimal.NewFromFloat(0.05), model.SideUp)

	pos, err := ex.ExecuteDirectionalTrade(context.Background(), opp, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.True(t, pos.YesShares.GreaterThan(decimal.Zero))
	require.True(t, pos.NoShares.IsZero())
	require.True(t, ex.Session().CheckBalanceIdentity())
}

func TestSettle_SpreadPositionPaysEqualShareRegardlessOfOutcome(t *testing.T) {
	ex, _ := newTestExecutor(t)
	mkt := testMarket("m1")
	opp := model.NewSpreadOpportunity(mkt, decimal.NewFromFloat(0.45), decimal.NewFromFloat(0.50),
		decimal.NewFromInt(100), decimal.NewFromFloat(0.0405), decimal.NewFromFloat(0.05), decimal.NewFromFloat(0.0095),
		decimal.NewFromFloat(47.37), decimal.NewFromFloat(52.63), decimal.NewFromFloat(0.9))
	pos, err := ex.ExecuteSpreadTrade(context.Background(), opp, decimal.NewFromInt(100))
	require.NoError(t, err)

	settled, err := ex.Settle(context.Background(), pos, model.ResolutionUp)
	require.NoError(t, err)
	require.Equal(t, model.PositionSettled, settled.Status)
	require.True(t, settled.Payout.Equal(pos.YesShares))
	require.True(t, ex.Session().CheckBalanceIdentity())
}

func TestSettle_DirectionalPositionPaysOnlyOnMatchingOutcome(t *testing.T) {
	ex, _ := newTestExecutor(t)
	mkt := testMarket("m2")
	opp := model.NewEdgeOpportunity(mkt, decimal.NewFromFloat(0.65), decimal.NewFromFloat(0.50),
		decimal.NewFromFloat(0.15), decimal.NewFromFloat(0.1), decimal.NewFromFloat(0.8),
		decimal.NewFromFloat(0.05), model.SideUp)
	pos, err := ex.ExecuteDirectionalTrade(context.Background(), opp, decimal.NewFromInt(50))
	require.NoError(t, err)

	settled, err := ex.Settle(context.Background(), pos, model.ResolutionDown)
	require.NoError(t, err)
	require.True(t, settled.Payout.IsZero())
	require.True(t, settled.RealizedPnL.Equal(pos.TotalInvested.Neg()))
}

func TestSettle_IsIdempotent(t *testing.T) {
	ex, _ := newTestExecutor(t)
	mkt := testMarket("m1")
	opp := model.NewSpreadOpportunity(mkt, decimal.NewFromFloat(0.45), decimal.NewFromFloat(0.50),
		decimal.NewFromInt(100), decimal.NewFromFloat(0.0405), decimal.NewFromFloat(0.05), decimal.NewFromFloat(0.0095),
		decimal.NewFromFloat(47.37), decimal.NewFromFloat(52.63), decimal.NewFromFloat(0.9))
	pos, err := ex.ExecuteSpreadTrade(context.Background(), opp, decimal.NewFromInt(100))
	require.NoError(t, err)

	first, err := ex.Settle(context.Background(), pos, model.ResolutionUp)
	require.NoError(t, err)
	second, err := ex.Settle(context.Background(), first, model.ResolutionDown)
	require.NoError(t, err)
	require.Equal(t, first.Payout, second.Payout)
}

func TestCheckExpiredPositions_ReturnsOnlyExpiredOpenOnes(t *testing.T) {
	ex, _ := newTestExecutor(t)
	mkt := testMarket("m1")
	opp := model.NewSpreadOpportunity(mkt, decimal.NewFromFloat(0.45), decimal.NewFromFloat(0.50),
		decimal.NewFromInt(100), decimal.NewFromFloat(0.0405), decimal.NewFromFloat(0.05), decimal.NewFromFloat(0.0095),
		decimal.NewFromFloat(47.37), decimal.NewFromFloat(52.63), decimal.NewFromFloat(0.9))
	_, err := ex.ExecuteSpreadTrade(context.Background(), opp, decimal.NewFromInt(100))
	require.NoError(t, err)

	now := time.Now()
	expiredMarket := mkt
	expiredMarket.EndTime = now.Add(-time.Minute)
	markets := map[string]model.Market{"m1": expiredMarket}

	expired := ex.CheckExpiredPositions(markets, now)
	require.Len(t, expired, 1)
	require.Equal(t, "m1", expired[0].MarketID)
}

func TestSizeForTrade_FloorsBelowMinimumToZero(t *testing.T) {
	ex, _ := newTestExecutor(t)
	ex.mu.Lock()
	ex.session.CurrentBalance = decimal.NewFromInt(5)
	ex.mu.Unlock()
	require.True(t, ex.SizeForTrade().IsZero())
}
