package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
)

// PostgresRepository implements Repository on top of database/sql with the
// lib/pq driver. The physical schema (see spec.md §6) is assumed to already
// exist; this package issues no migrations.
type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds connection parameters.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresRepository opens and pings a PostgreSQL connection.
func NewPostgresRepository(cfg *PostgresConfig) (*PostgresRepository, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, model.NewError(model.ErrConfig, "repository.open", err)
	}

	if err := db.Ping(); err != nil {
		return nil, model.NewError(model.ErrTransport, "repository.ping", err)
	}

	cfg.Logger.Info("postgres-repository-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresRepository{db: db, logger: cfg.Logger}, nil
}

// FetchActiveMarketsWithFreshOrderbook performs the hot-path query as a
// single round-trip: a lateral join against the latest orderbook snapshot
// per market, relying on the (market_id, captured_at DESC) index named in
// spec.md §6.
func (r *PostgresRepository) FetchActiveMarketsWithFreshOrderbook(ctx context.Context, maxAge time.Duration) ([]model.Market, error) {
	const query = `
		SELECT m.condition_id, m.venue, m.asset, m.timeframe, m.market_type, m.name,
		       m.end_time, m.yes_token_id, m.no_token_id,
		       ob.best_ask_yes, ob.best_bid_yes, ob.best_ask_no, ob.best_bid_no,
		       m.volume_24h, m.liquidity, ob.captured_at
		FROM markets m
		JOIN LATERAL (
			SELECT best_ask_yes, best_bid_yes, best_ask_no, best_bid_no, captured_at
			FROM orderbook_snapshots ob
			WHERE ob.market_id = m.condition_id
			ORDER BY ob.captured_at DESC
			LIMIT 1
		) ob ON true
		WHERE m.is_active = true
		  AND ob.captured_at >= $1
		ORDER BY m.end_time ASC
	`

	cutoff := time.Now().Add(-maxAge)
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, model.NewError(model.ErrTransport, "repository.fetch_active_markets", err)
	}
	defer rows.Close()

	var out []model.Market
	for rows.Next() {
		var m model.Market
		var venue, asset, timeframe, marketType string
		var yesAsk, yesBid, noAsk, noBid, volume, liquidity float64
		if err := rows.Scan(&m.ID, &venue, &asset, &timeframe, &marketType, &m.Name,
			&m.EndTime, &m.YesTokenID, &m.NoTokenID,
			&yesAsk, &yesBid, &noAsk, &noBid, &volume, &liquidity, &m.FetchedAt); err != nil {
			return nil, model.NewError(model.ErrData, "repository.scan_market", err)
		}
		m.Venue = model.Venue(venue)
		m.Asset = model.ParseAsset(asset)
		m.Timeframe = model.Timeframe(timeframe)
		m.MarketType = model.MarketType(marketType)
		m.YesAsk = decimal.NewFromFloat(yesAsk)
		m.YesBid = decimal.NewFromFloat(yesBid)
		m.NoAsk = decimal.NewFromFloat(noAsk)
		m.NoBid = decimal.NewFromFloat(noBid)
		m.Volume24h = decimal.NewFromFloat(volume)
		m.Liquidity = decimal.NewFromFloat(liquidity)
		out = append(out, m)
	}
	return out, rows.Err()
}

// LatestOrderbook returns the most recent snapshot for a market.
func (r *PostgresRepository) LatestOrderbook(ctx context.Context, marketID string) (model.OrderbookSnapshot, error) {
	const query = `
		SELECT market_id, best_bid_yes, best_ask_yes, captured_at
		FROM orderbook_snapshots
		WHERE market_id = $1
		ORDER BY captured_at DESC
		LIMIT 1
	`
	var s model.OrderbookSnapshot
	var bid, ask float64
	err := r.db.QueryRowContext(ctx, query, marketID).Scan(&s.MarketID, &bid, &ask, &s.CapturedAt)
	if err != nil {
		return model.OrderbookSnapshot{}, model.NewError(model.ErrTransport, "repository.latest_orderbook", err)
	}
	s.BestBid = decimal.NewFromFloat(bid)
	s.BestAsk = decimal.NewFromFloat(ask)
	return s, nil
}

// MarketByConditionID looks up one market row by its condition id.
func (r *PostgresRepository) MarketByConditionID(ctx context.Context, conditionID string) (model.Market, error) {
	const query = `
		SELECT condition_id, venue, asset, timeframe, end_time, yes_token_id, no_token_id
		FROM markets WHERE condition_id = $1
	`
	var m model.Market
	var venue, asset, timeframe string
	err := r.db.QueryRowContext(ctx, query, conditionID).Scan(&m.ID, &venue, &asset, &timeframe, &m.EndTime, &m.YesTokenID, &m.NoTokenID)
	if err != nil {
		return model.Market{}, model.NewError(model.ErrTransport, "repository.market_by_condition", err)
	}
	m.Venue = model.Venue(venue)
	m.Asset = model.ParseAsset(asset)
	m.Timeframe = model.Timeframe(timeframe)
	return m, nil
}

// CreatePosition, RecordTrade and ClosePosition each run as an independent
// statement on the shared *sql.DB. No *sql.Tx groups a tick's writes, so a
// failed write does not undo the ones before it.
func (r *PostgresRepository) CreatePosition(ctx context.Context, p model.Position) error {
	const query = `
		INSERT INTO positions (id, market_id, yes_shares, no_shares, yes_avg_price,
			no_avg_price, total_invested, status, entry_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.MarketID,
		p.YesShares.InexactFloat64(), p.NoShares.InexactFloat64(),
		p.YesAvgPrice.InexactFloat64(), p.NoAvgPrice.InexactFloat64(),
		p.TotalInvested.InexactFloat64(), string(p.Status), p.EntryTime)
	if err != nil {
		return model.NewError(model.ErrTransport, "repository.create_position", err)
	}
	return nil
}

func (r *PostgresRepository) RecordTrade(ctx context.Context, t model.Trade) error {
	const query = `
		INSERT INTO trades (id, ts, market_id, side, action, price, amount_usd, shares, fee, dry_run)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Timestamp, t.MarketID, string(t.Side), string(t.Action),
		t.Price.InexactFloat64(), t.AmountUSD.InexactFloat64(), t.Shares.InexactFloat64(),
		t.Fee.InexactFloat64(), t.DryRun)
	if err != nil {
		return model.NewError(model.ErrTransport, "repository.record_trade", err)
	}
	return nil
}

func (r *PostgresRepository) ClosePosition(ctx context.Context, positionID string, status model.PositionStatus) error {
	const query = `UPDATE positions SET status = $1, exit_time = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, string(status), positionID)
	if err != nil {
		return model.NewError(model.ErrTransport, "repository.close_position", err)
	}
	return nil
}

// LoadResolutions returns resolved markets, optionally filtered.
func (r *PostgresRepository) LoadResolutions(ctx context.Context, assets []model.Asset, timeframe model.Timeframe) ([]model.MarketResolution, error) {
	query := `SELECT condition_id, asset, timeframe, end_time, yes_token_id, no_token_id, winning_side
	          FROM market_resolutions WHERE ($1 = '' OR timeframe = $1) ORDER BY end_time ASC`
	rows, err := r.db.QueryContext(ctx, query, string(timeframe))
	if err != nil {
		return nil, model.NewError(model.ErrTransport, "repository.load_resolutions", err)
	}
	defer rows.Close()

	assetSet := make(map[model.Asset]bool, len(assets))
	for _, a := range assets {
		assetSet[a] = true
	}

	var out []model.MarketResolution
	for rows.Next() {
		var res model.MarketResolution
		var asset, tf, winning string
		if err := rows.Scan(&res.ConditionID, &asset, &tf, &res.EndTime, &res.YesTokenID, &res.NoTokenID, &winning); err != nil {
			return nil, model.NewError(model.ErrData, "repository.scan_resolution", err)
		}
		res.Asset = model.ParseAsset(asset)
		res.Timeframe = model.Timeframe(tf)
		res.WinningSide = model.TradeSide(winning)
		if len(assetSet) == 0 || assetSet[res.Asset] {
			out = append(out, res)
		}
	}
	return out, rows.Err()
}

// LoadPriceHistory returns sorted pre-resolution price points for a market.
func (r *PostgresRepository) LoadPriceHistory(ctx context.Context, conditionID string, window [2]time.Time) ([]model.PriceSnapshot, error) {
	const query = `
		SELECT condition_id, yes_price, no_price, timestamp
		FROM price_history
		WHERE condition_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp ASC
	`
	rows, err := r.db.QueryContext(ctx, query, conditionID, window[0], window[1])
	if err != nil {
		return nil, model.NewError(model.ErrTransport, "repository.load_price_history", err)
	}
	defer rows.Close()

	var out []model.PriceSnapshot
	for rows.Next() {
		var s model.PriceSnapshot
		var yes, no float64
		if err := rows.Scan(&s.ConditionID, &yes, &no, &s.Timestamp); err != nil {
			return nil, model.NewError(model.ErrData, "repository.scan_price_snapshot", err)
		}
		s.YesPrice = decimal.NewFromFloat(yes)
		s.NoPrice = decimal.NewFromFloat(no)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveBacktestRun persists a completed run and its trades.
func (r *PostgresRepository) SaveBacktestRun(ctx context.Context, run model.BacktestRun) (int64, error) {
	const query = `
		INSERT INTO backtest_runs (
			strategy_name, start_date, end_date, total_signals, orders_placed,
			orders_filled, winning_trades, losing_trades, total_invested,
			total_payout, net_pnl, win_rate, fill_rate, roi, profit_factor,
			max_drawdown, executed_at, duration_seconds
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id
	`
	m := run.Metrics
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		run.StrategyName, run.StartDate, run.EndDate,
		m.TotalSignals, m.OrdersPlaced, m.OrdersFilled, m.WinningTrades, m.LosingTrades,
		m.TotalInvested.InexactFloat64(), m.TotalPayout.InexactFloat64(), m.NetPnL.InexactFloat64(),
		m.WinRate.InexactFloat64(), m.FillRate.InexactFloat64(), m.ROI.InexactFloat64(),
		m.ProfitFactor.InexactFloat64(), m.MaxDrawdown.InexactFloat64(),
		run.ExecutedAt, run.DurationSeconds,
	).Scan(&id)
	if err != nil {
		return 0, model.NewError(model.ErrTransport, "repository.save_backtest_run", err)
	}
	return id, nil
}

// LoadBacktestRun retrieves a persisted run's metrics by ID.
func (r *PostgresRepository) LoadBacktestRun(ctx context.Context, id int64) (model.BacktestRun, error) {
	const query = `
		SELECT strategy_name, start_date, end_date, total_signals, orders_placed,
			orders_filled, winning_trades, losing_trades, total_invested,
			total_payout, net_pnl, win_rate, fill_rate, roi, profit_factor,
			max_drawdown, executed_at, duration_seconds
		FROM backtest_runs WHERE id = $1
	`
	var run model.BacktestRun
	run.ID = id
	var m model.BacktestMetrics
	var totalInvested, totalPayout, netPnL, winRate, fillRate, roi, profitFactor, maxDrawdown float64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.StrategyName, &run.StartDate, &run.EndDate, &m.TotalSignals, &m.OrdersPlaced,
		&m.OrdersFilled, &m.WinningTrades, &m.LosingTrades, &totalInvested,
		&totalPayout, &netPnL, &winRate, &fillRate, &roi, &profitFactor, &maxDrawdown,
		&run.ExecutedAt, &run.DurationSeconds,
	)
	if err != nil {
		return model.BacktestRun{}, model.NewError(model.ErrTransport, "repository.load_backtest_run", err)
	}
	m.TotalInvested = decimal.NewFromFloat(totalInvested)
	m.TotalPayout = decimal.NewFromFloat(totalPayout)
	m.NetPnL = decimal.NewFromFloat(netPnL)
	m.WinRate = decimal.NewFromFloat(winRate)
	m.FillRate = decimal.NewFromFloat(fillRate)
	m.ROI = decimal.NewFromFloat(roi)
	m.ProfitFactor = decimal.NewFromFloat(profitFactor)
	m.MaxDrawdown = decimal.NewFromFloat(maxDrawdown)
	run.Metrics = m
	return run, nil
}

// SaveSession upserts the session checkpoint row.
func (r *PostgresRepository) SaveSession(ctx context.Context, session *model.BotSession) error {
	const query = `
		INSERT INTO bot_sessions (id, started_at, starting_balance, current_balance, net_profit, trades_count, winning_count, losing_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
			current_balance = EXCLUDED.current_balance,
			net_profit = EXCLUDED.net_profit,
			trades_count = EXCLUDED.trades_count,
			winning_count = EXCLUDED.winning_count,
			losing_count = EXCLUDED.losing_count
	`
	_, err := r.db.ExecContext(ctx, query, session.ID, session.StartedAt,
		session.StartingBalance.InexactFloat64(), session.CurrentBalance.InexactFloat64(),
		session.NetProfit.InexactFloat64(), session.TradesCount, session.WinningCount, session.LosingCount)
	if err != nil {
		return model.NewError(model.ErrTransport, "repository.save_session", err)
	}
	return nil
}

// LoadSession restores a session checkpoint by ID.
func (r *PostgresRepository) LoadSession(ctx context.Context, id string) (*model.BotSession, error) {
	const query = `
		SELECT id, started_at, starting_balance, current_balance, net_profit, trades_count, winning_count, losing_count
		FROM bot_sessions WHERE id = $1
	`
	session := &model.BotSession{OpenPositions: make(map[string]*model.Position)}
	var starting, current, netProfit float64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&session.ID, &session.StartedAt,
		&starting, &current, &netProfit, &session.TradesCount, &session.WinningCount, &session.LosingCount)
	if err != nil {
		return nil, model.NewError(model.ErrTransport, "repository.load_session", err)
	}
	session.StartingBalance = decimal.NewFromFloat(starting)
	session.CurrentBalance = decimal.NewFromFloat(current)
	session.NetProfit = decimal.NewFromFloat(netProfit)
	return session, nil
}

// Close closes the underlying database handle.
func (r *PostgresRepository) Close() error {
	r.logger.Info("closing-postgres-repository")
	return r.db.Close()
}
