package backtest

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/repository"
)

var zero = decimal.Zero

// Config configures a Simulator run.
type Config struct {
	Repository             repository.Repository
	Strategy               Strategy
	ExpiryWindow           time.Duration
	PositionSize           decimal.Decimal
	AllowSyntheticSnapshot bool
	Logger                 *zap.Logger
}

// Simulator replays resolved markets against a Strategy.
type Simulator struct {
	repo                   repository.Repository
	strategy               Strategy
	expiryWindow           time.Duration
	positionSize           decimal.Decimal
	allowSyntheticSnapshot bool
	logger                 *zap.Logger
}

// New builds a Simulator.
func New(cfg Config) *Simulator {
	return &Simulator{
		repo:                   cfg.Repository,
		strategy:               cfg.Strategy,
		expiryWindow:           cfg.ExpiryWindow,
		positionSize:           cfg.PositionSize,
		allowSyntheticSnapshot: cfg.AllowSyntheticSnapshot,
		logger:                 cfg.Logger,
	}
}

// Run replays every resolution in [start,end] for the given assets/timeframe
// against the configured strategy and aggregates the resulting metrics.
func (s *Simulator) Run(ctx context.Context, assets []model.Asset, timeframe model.Timeframe, start, end time.Time) (model.BacktestRun, error) {
	runStart := time.Now()

	resolutions, err := s.repo.LoadResolutions(ctx, assets, timeframe)
	if err != nil {
		return model.BacktestRun{}, model.NewError(model.ErrTransport, "backtest.load_resolutions", err)
	}

	var windowed []model.MarketResolution
	for _, r := range resolutions {
		if !r.EndTime.Before(start) && !r.EndTime.After(end) {
			windowed = append(windowed, r)
		}
	}
	sort.Slice(windowed, func(i, j int) bool { return windowed[i].EndTime.Before(windowed[j].EndTime) })

	var trades []model.BacktestTrade
	var totalSignals, placed, filled, wins, losses int
	totalInvested, totalPayout := zero, zero
	grossWin, grossLoss := zero, zero

	for _, res := range windowed {
		totalSignals++
		windowStart := res.EndTime.Add(-s.expiryWindow)

		history, err := s.repo.LoadPriceHistory(ctx, res.ConditionID, [2]time.Time{windowStart, res.EndTime})
		if err != nil {
			s.logger.Debug("skip-resolution-history-error", zap.String("condition_id", res.ConditionID), zap.Error(err))
			continue
		}
		sort.Slice(history, func(i, j int) bool { return history[i].Timestamp.Before(history[j].Timestamp) })

		signalHistory, ok := s.findSignal(history)
		if !ok {
			if !s.allowSyntheticSnapshot {
				continue
			}
			signalHistory = []model.PriceSnapshot{syntheticSnapshot(res)}
			s.logger.Debug("using-synthetic-snapshot", zap.String("condition_id", res.ConditionID))
		}

		side := s.strategy.TradeSide(signalHistory)
		orderType := s.strategy.OrderType()
		orderPrice := s.strategy.OrderPrice(signalHistory, side)
		placed++

		trade, didFill := s.simulateFill(res, side, orderType, orderPrice, signalHistory)
		if !didFill {
			continue
		}
		filled++
		trades = append(trades, trade)
		totalInvested = totalInvested.Add(trade.Cost)
		totalPayout = totalPayout.Add(trade.Payout)
		if trade.Won {
			wins++
			grossWin = grossWin.Add(trade.PnL)
		} else {
			losses++
			grossLoss = grossLoss.Add(trade.PnL.Abs())
		}
	}

	metrics := aggregateMetrics(totalSignals, placed, filled, wins, losses, totalInvested, totalPayout, grossWin, grossLoss, trades)

	run := model.BacktestRun{
		StrategyName:    s.strategy.Name(),
		StartDate:       start,
		EndDate:         end,
		Assets:          assets,
		Timeframes:      []model.Timeframe{timeframe},
		Trades:          trades,
		Metrics:         metrics,
		ExecutedAt:      runStart,
		DurationSeconds: time.Since(runStart).Seconds(),
	}

	runsCompletedTotal.WithLabelValues(s.strategy.Name()).Inc()
	return run, nil
}

// findSignal returns the prefix of history ending at the first snapshot the
// strategy accepts, or false if none qualifies.
func (s *Simulator) findSignal(history []model.PriceSnapshot) ([]model.PriceSnapshot, bool) {
	for i := range history {
		prefix := history[:i+1]
		if s.strategy.ShouldSignal(prefix) {
			return prefix, true
		}
	}
	return nil, false
}

func syntheticSnapshot(res model.MarketResolution) model.PriceSnapshot {
	skew := decimal.NewFromFloat(0.85)
	yes, no := decimal.NewFromFloat(1).Sub(skew), skew
	if res.WinningSide == model.TradeSideYes {
		yes, no = skew, decimal.NewFromFloat(1).Sub(skew)
	}
	return model.PriceSnapshot{
		ConditionID: res.ConditionID,
		YesTokenID:  res.YesTokenID,
		NoTokenID:   res.NoTokenID,
		YesPrice:    yes,
		NoPrice:     no,
		Timestamp:   res.EndTime.Add(-time.Minute),
	}
}

// simulateFill applies the MARKET/LIMIT fill rule from spec: MARKET orders
// always fill at the snapshot price of the chosen side; LIMIT orders fill
// iff the side chosen actually loses (the losing side's price is what
// collapses through a low resting limit).
func (s *Simulator) simulateFill(res model.MarketResolution, side model.TradeSide, orderType model.OrderType, orderPrice decimal.Decimal, history []model.PriceSnapshot) (model.BacktestTrade, bool) {
	switch orderType {
	case model.OrderTypeLimit:
		if side == res.WinningSide {
			return model.BacktestTrade{}, false
		}
	case model.OrderTypeMarket:
		// always fills
	}

	fillPrice := orderPrice
	if fillPrice.LessThanOrEqual(zero) {
		return model.BacktestTrade{}, false
	}
	shares := s.positionSize.Div(fillPrice)
	cost := fillPrice.Mul(shares)

	payout := zero
	if side == res.WinningSide {
		payout = shares
	}
	pnl := payout.Sub(cost)

	trade := model.BacktestTrade{
		ConditionID:  res.ConditionID,
		Side:         side,
		OrderType:    orderType,
		FillPrice:    fillPrice,
		Shares:       shares,
		Cost:         cost,
		Payout:       payout,
		PnL:          pnl,
		TimeToExpiry: res.EndTime.Sub(last(history).Timestamp),
		Won:          pnl.GreaterThan(zero),
	}
	if trade.Won {
		tradesSimulatedTotal.WithLabelValues("win").Inc()
	} else {
		tradesSimulatedTotal.WithLabelValues("loss").Inc()
	}
	return trade, true
}

func aggregateMetrics(totalSignals, placed, filled, wins, losses int, totalInvested, totalPayout, grossWin, grossLoss decimal.Decimal, trades []model.BacktestTrade) model.BacktestMetrics {
	netPnL := totalPayout.Sub(totalInvested)

	winRate := zero
	if filled > 0 {
		winRate = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(filled)))
	}
	fillRate := zero
	if placed > 0 {
		fillRate = decimal.NewFromInt(int64(filled)).Div(decimal.NewFromInt(int64(placed)))
	}
	roi := zero
	if !totalInvested.IsZero() {
		roi = netPnL.Div(totalInvested)
	}
	profitFactor := zero
	switch {
	case grossLoss.IsZero() && grossWin.IsZero():
		profitFactor = zero
	case grossLoss.IsZero():
		profitFactor = grossWin
	default:
		profitFactor = grossWin.Div(grossLoss)
	}

	return model.BacktestMetrics{
		TotalSignals:  totalSignals,
		OrdersPlaced:  placed,
		OrdersFilled:  filled,
		WinningTrades: wins,
		LosingTrades:  losses,
		TotalInvested: totalInvested,
		TotalPayout:   totalPayout,
		NetPnL:        netPnL,
		WinRate:       winRate,
		FillRate:      fillRate,
		ROI:           roi,
		ProfitFactor:  profitFactor,
		MaxDrawdown:   maxDrawdown(trades),
	}
}

// maxDrawdown tracks equity only from positive peaks, per spec: drawdown is
// 0 until equity first turns positive.
func maxDrawdown(trades []model.BacktestTrade) decimal.Decimal {
	equity := zero
	peak := zero
	maxDD := zero
	for _, t := range trades {
		equity = equity.Add(t.PnL)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if peak.GreaterThan(zero) {
			dd := peak.Sub(equity)
			if dd.GreaterThan(maxDD) {
				maxDD = dd
			}
		}
	}
	return maxDD
}
