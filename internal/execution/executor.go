// Package execution is the dry-run executor: a budgeted bankroll, exposure
// caps, at-most-one-position-per-market enforcement, and deterministic
// settlement accounting. It is the sole owner of the live session's
// in-memory position map; the repository only ever sees committed writes.
package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/quant"
	"github.com/cryptoedge/bot/internal/repository"
)

var (
	zero = decimal.Zero
	two  = decimal.NewFromInt(2)
)

// Config configures an Executor.
type Config struct {
	Repository      repository.Repository
	Session         *model.BotSession
	MaxPositionSize decimal.Decimal
	MaxTotalExposure decimal.Decimal
	MinTradeSize    decimal.Decimal // trade size must clear this floor, e.g. $10
	FeeRate         decimal.Decimal // applied to directional (edge/mispricing) fills; spread fills carry their own fee in the Opportunity
	DryRun          bool
	Logger          *zap.Logger
}

// Executor executes opportunities against a session's bankroll.
type Executor struct {
	repo            repository.Repository
	maxPositionSize decimal.Decimal
	maxTotalExposure decimal.Decimal
	minTradeSize    decimal.Decimal
	feeRate         decimal.Decimal
	dryRun          bool
	logger          *zap.Logger

	mu      sync.RWMutex
	session *model.BotSession
}

// New creates an Executor bound to an existing (or freshly created) session.
func New(cfg Config) *Executor {
	return &Executor{
		repo:             cfg.Repository,
		session:          cfg.Session,
		maxPositionSize:  cfg.MaxPositionSize,
		maxTotalExposure: cfg.MaxTotalExposure,
		minTradeSize:     cfg.MinTradeSize,
		feeRate:          cfg.FeeRate,
		dryRun:           cfg.DryRun,
		logger:           cfg.Logger,
	}
}

// Session returns the executor's current session snapshot. Callers must not
// mutate the returned pointer's maps directly.
func (e *Executor) Session() *model.BotSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

// CanTrade reports whether amount clears the balance, per-position and
// total-exposure caps.
func (e *Executor) CanTrade(amount decimal.Decimal) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if amount.GreaterThan(e.session.CurrentBalance) {
		return false
	}
	if amount.GreaterThan(e.maxPositionSize) {
		return false
	}
	if e.session.OpenExposure().Add(amount).GreaterThan(e.maxTotalExposure) {
		return false
	}
	return true
}

// HasOpenPosition reports whether an OPEN position already exists for a
// market, enforcing the at-most-one-position-per-market invariant.
func (e *Executor) HasOpenPosition(marketID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.session.OpenPositions[marketID]
	return ok && p.Status == model.PositionOpen
}

// SizeForTrade returns the tick's default trade size: min(maxPositionSize,
// availableBalance), or zero if that floor is below the minimum trade size.
func (e *Executor) SizeForTrade() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	size := e.maxPositionSize
	if e.session.CurrentBalance.LessThan(size) {
		size = e.session.CurrentBalance
	}
	if size.LessThan(e.minTradeSize) {
		return zero
	}
	return size
}

// ExecuteSpreadTrade opens a Position from a Spread-kind Opportunity, buying
// both legs in proportional allocation so both outcomes pay out the same
// share count. Recomputes the fill at `investment` rather than trusting the
// detector's size, since the caller may scale to available bankroll.
func (e *Executor) ExecuteSpreadTrade(ctx context.Context, opp model.Opportunity, investment decimal.Decimal) (*model.Position, error) {
	if opp.Kind != model.OpportunitySpread {
		return nil, fmt.Errorf("execute_spread_trade: opportunity is not spread-kind")
	}
	if e.HasOpenPosition(opp.Market.ID) {
		return nil, model.NewError(model.ErrCapacity, "executor.execute_spread_trade", errors.New("position already open for market"))
	}

	feeRate := zero
	if priceSum := opp.YesPrice.Add(opp.NoPrice); !priceSum.IsZero() {
		feeRate = opp.EstimatedFees.Div(priceSum)
	}
	net, yesAlloc, noAlloc, gross := quant.ProportionalArb(opp.YesPrice, opp.NoPrice, investment, feeRate)
	if net.LessThanOrEqual(zero) {
		return nil, model.NewError(model.ErrCapacity, "executor.execute_spread_trade", errors.New("no longer profitable at requested size"))
	}
	fees := gross.Sub(net)

	yesShares := yesAlloc.Div(opp.YesPrice)
	noShares := noAlloc.Div(opp.NoPrice)
	yesFee := fees.Div(two)
	noFee := fees.Sub(yesFee)

	now := time.Now()
	yesTrade := model.Trade{ID: uuid.New().String(), Timestamp: now, MarketID: opp.Market.ID, Side: model.TradeSideYes, Action: model.TradeActionBuy, Price: opp.YesPrice, AmountUSD: yesAlloc, Shares: yesShares, Fee: yesFee, DryRun: e.dryRun}
	noTrade := model.Trade{ID: uuid.New().String(), Timestamp: now, MarketID: opp.Market.ID, Side: model.TradeSideNo, Action: model.TradeActionBuy, Price: opp.NoPrice, AmountUSD: noAlloc, Shares: noShares, Fee: noFee, DryRun: e.dryRun}

	pos := model.Position{
		ID:            uuid.New().String(),
		MarketID:      opp.Market.ID,
		YesShares:     yesShares,
		NoShares:      noShares,
		YesAvgPrice:   opp.YesPrice,
		NoAvgPrice:    opp.NoPrice,
		TotalInvested: yesAlloc.Add(noAlloc),
		Status:        model.PositionOpen,
		EntryTime:     now,
		Trades:        []model.Trade{yesTrade, noTrade},
	}

	if err := e.commitOpen(ctx, &pos, yesTrade, noTrade); err != nil {
		return nil, err
	}

	positionsOpenedTotal.WithLabelValues("spread").Inc()
	e.logger.Info("spread-position-opened", zap.String("market_id", opp.Market.ID), zap.String("invested", pos.TotalInvested.String()))
	return &pos, nil
}

// ExecuteDirectionalTrade opens a Position from an Edge- or Mispricing-kind
// Opportunity, buying only the recommended side.
func (e *Executor) ExecuteDirectionalTrade(ctx context.Context, opp model.Opportunity, investment decimal.Decimal) (*model.Position, error) {
	if opp.Kind != model.OpportunityEdge && opp.Kind != model.OpportunityMispricing {
		return nil, fmt.Errorf("execute_directional_trade: opportunity is not edge or mispricing kind")
	}
	if opp.RecommendedSide != model.SideUp && opp.RecommendedSide != model.SideDown {
		return nil, fmt.Errorf("execute_directional_trade: no recommended side")
	}
	if e.HasOpenPosition(opp.Market.ID) {
		return nil, model.NewError(model.ErrCapacity, "executor.execute_directional_trade", errors.New("position already open for market"))
	}
	if opp.MarketPrice.LessThanOrEqual(zero) || opp.MarketPrice.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, model.NewError(model.ErrData, "executor.execute_directional_trade", errors.New("market price out of range"))
	}

	fee := investment.Mul(e.feeRate)
	netInvestment := investment.Sub(fee)
	shares := netInvestment.Div(opp.MarketPrice)

	now := time.Now()
	side := model.TradeSideYes
	if opp.RecommendedSide == model.SideDown {
		side = model.TradeSideNo
	}
	trade := model.Trade{ID: uuid.New().String(), Timestamp: now, MarketID: opp.Market.ID, Side: side, Action: model.TradeActionBuy, Price: opp.MarketPrice, AmountUSD: investment, Shares: shares, Fee: fee, DryRun: e.dryRun}

	pos := model.Position{
		ID:            uuid.New().String(),
		MarketID:      opp.Market.ID,
		TotalInvested: investment,
		Status:        model.PositionOpen,
		EntryTime:     now,
		Trades:        []model.Trade{trade},
	}
	if side == model.TradeSideYes {
		pos.YesShares = shares
		pos.YesAvgPrice = opp.MarketPrice
	} else {
		pos.NoShares = shares
		pos.NoAvgPrice = opp.MarketPrice
	}

	if err := e.commitOpen(ctx, &pos, trade); err != nil {
		return nil, err
	}

	positionsOpenedTotal.WithLabelValues(string(opp.Kind)).Inc()
	e.logger.Info("directional-position-opened",
		zap.String("market_id", opp.Market.ID), zap.String("side", string(opp.RecommendedSide)), zap.String("invested", investment.String()))
	return &pos, nil
}

// commitOpen records trades, persists the position, moves bankroll and
// checkpoints the session. A repository failure rolls back the in-memory
// mutation so the tick can retry cleanly.
func (e *Executor) commitOpen(ctx context.Context, pos *model.Position, trades ...model.Trade) error {
	e.mu.Lock()
	e.session.CurrentBalance = e.session.CurrentBalance.Sub(pos.TotalInvested)
	e.session.OpenPositions[pos.MarketID] = pos
	e.mu.Unlock()

	rollback := func() {
		e.mu.Lock()
		e.session.CurrentBalance = e.session.CurrentBalance.Add(pos.TotalInvested)
		delete(e.session.OpenPositions, pos.MarketID)
		e.mu.Unlock()
	}

	if err := e.repo.CreatePosition(ctx, *pos); err != nil {
		rollback()
		return model.NewError(model.ErrTransport, "executor.create_position", err)
	}
	for _, t := range trades {
		if err := e.repo.RecordTrade(ctx, t); err != nil {
			rollback()
			return model.NewError(model.ErrTransport, "executor.record_trade", err)
		}
	}
	if err := e.repo.SaveSession(ctx, e.session); err != nil {
		rollback()
		return model.NewError(model.ErrTransport, "executor.save_session", err)
	}
	return nil
}

// Settle resolves an OPEN position to a terminal SETTLED state.
// Idempotent: settling an already-settled position is a no-op. For spread
// positions (both legs held) the payout is the equal share count
// regardless of outcome; for directional positions only the held side pays.
func (e *Executor) Settle(ctx context.Context, pos *model.Position, outcome model.Resolution) (*model.Position, error) {
	if pos.IsSettled() {
		return pos, nil
	}

	var payout decimal.Decimal
	switch {
	case pos.YesShares.GreaterThan(zero) && pos.NoShares.GreaterThan(zero):
		payout = pos.YesShares
	case outcome == model.ResolutionUp && pos.YesShares.GreaterThan(zero):
		payout = pos.YesShares
	case outcome == model.ResolutionDown && pos.NoShares.GreaterThan(zero):
		payout = pos.NoShares
	default:
		payout = zero
	}

	now := time.Now()
	pos.Payout = payout
	pos.RealizedPnL = payout.Sub(pos.TotalInvested)
	pos.SettledOutcome = outcome
	pos.Status = model.PositionSettled
	pos.ExitTime = &now

	e.mu.Lock()
	e.session.CurrentBalance = e.session.CurrentBalance.Add(payout)
	e.session.NetProfit = e.session.NetProfit.Add(pos.RealizedPnL)
	e.session.TradesCount++
	if pos.RealizedPnL.GreaterThan(zero) {
		e.session.WinningCount++
	} else if pos.RealizedPnL.LessThan(zero) {
		e.session.LosingCount++
	}
	e.session.OpenPositions[pos.MarketID] = pos
	identityOK := e.session.CheckBalanceIdentity()
	e.mu.Unlock()

	if err := e.repo.ClosePosition(ctx, pos.ID, model.PositionSettled); err != nil {
		return nil, model.NewError(model.ErrTransport, "executor.settle", err)
	}
	if err := e.repo.SaveSession(ctx, e.session); err != nil {
		return nil, model.NewError(model.ErrTransport, "executor.settle", err)
	}

	if !identityOK {
		return nil, model.NewError(model.ErrConsistency, "executor.settle", errors.New("balance identity violated"))
	}

	positionsSettledTotal.Inc()
	e.logger.Info("position-settled",
		zap.String("market_id", pos.MarketID),
		zap.String("outcome", string(outcome)),
		zap.String("realized_pnl", pos.RealizedPnL.String()))
	return pos, nil
}

// CheckExpiredPositions returns every OPEN position whose market has
// expired or is absent from markets, for the scan loop to settle before new
// entries are considered.
func (e *Executor) CheckExpiredPositions(markets map[string]model.Market, now time.Time) []*model.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var expired []*model.Position
	for marketID, pos := range e.session.OpenPositions {
		if pos.Status != model.PositionOpen {
			continue
		}
		mkt, ok := markets[marketID]
		if ok && !mkt.IsExpired(now) {
			continue
		}
		expired = append(expired, pos)
	}
	return expired
}
