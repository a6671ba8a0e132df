package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	goccyjson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
)

// ConsoleRepository is an in-memory Repository that also pretty-prints
// every write to the console. It backs dry-run sessions and tests where a
// real database is unavailable or undesired.
type ConsoleRepository struct {
	logger *zap.Logger

	mu         sync.RWMutex
	markets    map[string]model.Market
	orderbooks map[string]model.OrderbookSnapshot
	positions  map[string]model.Position
	trades     []model.Trade
	resolutions []model.MarketResolution
	priceHistory map[string][]model.PriceSnapshot
	backtests  map[int64]model.BacktestRun
	sessions   map[string]*model.BotSession
	nextRunID  int64
}

// NewConsoleRepository creates an empty in-memory repository.
func NewConsoleRepository(logger *zap.Logger) *ConsoleRepository {
	logger.Info("console-repository-initialized")
	return &ConsoleRepository{
		logger:       logger,
		markets:      make(map[string]model.Market),
		orderbooks:   make(map[string]model.OrderbookSnapshot),
		positions:    make(map[string]model.Position),
		priceHistory: make(map[string][]model.PriceSnapshot),
		backtests:    make(map[int64]model.BacktestRun),
		sessions:     make(map[string]*model.BotSession),
	}
}

// Seed loads markets the caller already fetched from a venue adapter, so
// FetchActiveMarketsWithFreshOrderbook has something to return without a
// database behind it.
func (c *ConsoleRepository) Seed(markets []model.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range markets {
		c.markets[m.ID] = m
	}
}

// SeedResolutions loads resolved markets for backtest replay in tests and
// offline runs without a database behind the repository.
func (c *ConsoleRepository) SeedResolutions(resolutions []model.MarketResolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolutions = append(c.resolutions, resolutions...)
}

// SeedPriceHistory loads a condition's pre-resolution price series for
// backtest replay.
func (c *ConsoleRepository) SeedPriceHistory(conditionID string, snapshots []model.PriceSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.priceHistory[conditionID] = append(c.priceHistory[conditionID], snapshots...)
}

func (c *ConsoleRepository) FetchActiveMarketsWithFreshOrderbook(ctx context.Context, maxAge time.Duration) ([]model.Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := time.Now()
	var out []model.Market
	for _, m := range c.markets {
		if !m.Resolved && !m.IsExpired(now) && !m.IsStale(now, maxAge) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (c *ConsoleRepository) LatestOrderbook(ctx context.Context, marketID string) (model.OrderbookSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ob, ok := c.orderbooks[marketID]
	if !ok {
		return model.OrderbookSnapshot{}, model.NewError(model.ErrData, "repository.latest_orderbook", fmt.Errorf("no orderbook for %s", marketID))
	}
	return ob, nil
}

func (c *ConsoleRepository) MarketByConditionID(ctx context.Context, conditionID string) (model.Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.markets[conditionID]
	if !ok {
		return model.Market{}, model.NewError(model.ErrData, "repository.market_by_condition", fmt.Errorf("unknown market %s", conditionID))
	}
	return m, nil
}

func (c *ConsoleRepository) CreatePosition(ctx context.Context, p model.Position) error {
	c.mu.Lock()
	c.positions[p.ID] = p
	c.mu.Unlock()

	fmt.Println("\n" + "────────────────────────────────────────────────────────")
	fmt.Printf("POSITION OPENED  %.8s\n", p.ID)
	fmt.Printf("  market:    %s\n", p.MarketID)
	fmt.Printf("  yes/no:    %s / %s shares\n", p.YesShares.String(), p.NoShares.String())
	fmt.Printf("  invested:  $%s\n", p.TotalInvested.String())
	fmt.Println("────────────────────────────────────────────────────────")
	return nil
}

func (c *ConsoleRepository) RecordTrade(ctx context.Context, t model.Trade) error {
	c.mu.Lock()
	c.trades = append(c.trades, t)
	c.mu.Unlock()

	tag := "LIVE"
	if t.DryRun {
		tag = "DRY-RUN"
	}
	fmt.Printf("[%s] trade %.8s  %s %s  %s @ %s  $%s\n",
		tag, t.ID, t.Action, t.Side, t.Shares.String(), t.Price.String(), t.AmountUSD.String())

	if line, err := goccyjson.Marshal(t); err == nil {
		c.logger.Debug("trade-log-line", zap.ByteString("trade", line))
	}
	return nil
}

func (c *ConsoleRepository) ClosePosition(ctx context.Context, positionID string, status model.PositionStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.positions[positionID]
	if !ok {
		return model.NewError(model.ErrData, "repository.close_position", fmt.Errorf("unknown position %s", positionID))
	}
	p.Status = status
	now := time.Now()
	p.ExitTime = &now
	c.positions[positionID] = p
	fmt.Printf("position %.8s closed: %s\n", positionID, status)
	return nil
}

func (c *ConsoleRepository) LoadResolutions(ctx context.Context, assets []model.Asset, timeframe model.Timeframe) ([]model.MarketResolution, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	assetSet := make(map[model.Asset]bool, len(assets))
	for _, a := range assets {
		assetSet[a] = true
	}
	var out []model.MarketResolution
	for _, r := range c.resolutions {
		if timeframe != "" && r.Timeframe != timeframe {
			continue
		}
		if len(assetSet) > 0 && !assetSet[r.Asset] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *ConsoleRepository) LoadPriceHistory(ctx context.Context, conditionID string, window [2]time.Time) ([]model.PriceSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.PriceSnapshot
	for _, s := range c.priceHistory[conditionID] {
		if !s.Timestamp.Before(window[0]) && !s.Timestamp.After(window[1]) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *ConsoleRepository) SaveBacktestRun(ctx context.Context, run model.BacktestRun) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextRunID++
	run.ID = c.nextRunID
	c.backtests[run.ID] = run

	m := run.Metrics
	fmt.Println("\n" + "════════════════════════════════════════════════════════")
	fmt.Printf("BACKTEST RUN #%d  strategy=%s\n", run.ID, run.StrategyName)
	fmt.Printf("  signals=%d placed=%d filled=%d win_rate=%s roi=%s\n",
		m.TotalSignals, m.OrdersPlaced, m.OrdersFilled, m.WinRate.String(), m.ROI.String())
	fmt.Printf("  net_pnl=$%s profit_factor=%s max_drawdown=%s\n",
		m.NetPnL.String(), m.ProfitFactor.String(), m.MaxDrawdown.String())
	fmt.Println("════════════════════════════════════════════════════════")
	return run.ID, nil
}

func (c *ConsoleRepository) LoadBacktestRun(ctx context.Context, id int64) (model.BacktestRun, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	run, ok := c.backtests[id]
	if !ok {
		return model.BacktestRun{}, model.NewError(model.ErrData, "repository.load_backtest_run", fmt.Errorf("unknown run %d", id))
	}
	return run, nil
}

func (c *ConsoleRepository) SaveSession(ctx context.Context, session *model.BotSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID] = session
	fmt.Printf("session %.8s checkpoint: balance=$%s net_profit=$%s trades=%d\n",
		session.ID, session.CurrentBalance.String(), session.NetProfit.String(), session.TradesCount)

	if snapshot, err := goccyjson.Marshal(session); err == nil {
		c.logger.Debug("session-snapshot", zap.ByteString("session", snapshot))
	}
	return nil
}

func (c *ConsoleRepository) LoadSession(ctx context.Context, id string) (*model.BotSession, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, model.NewError(model.ErrData, "repository.load_session", fmt.Errorf("unknown session %s", id))
	}
	return s, nil
}

func (c *ConsoleRepository) Close() error {
	c.logger.Info("closing-console-repository")
	return nil
}
