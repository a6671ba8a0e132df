// Package repository owns persisted entities: markets, orderbook
// snapshots, positions, trades, and the backtest tables. It is the sole
// writer of these; the monitor only ever borrows a per-tick read view.
package repository

import (
	"context"
	"time"

	"github.com/cryptoedge/bot/internal/model"
)

// Repository is the contract every storage backend (Postgres, console,
// in-memory) must satisfy. See spec.md §4.3.
type Repository interface {
	// FetchActiveMarketsWithFreshOrderbook returns, in one logical
	// round-trip, every active market whose most recent orderbook
	// snapshot is within maxAge, ordered by end_time ascending. This is
	// the hot path; implementations must not issue an N+1 query per
	// market.
	FetchActiveMarketsWithFreshOrderbook(ctx context.Context, maxAge time.Duration) ([]model.Market, error)

	LatestOrderbook(ctx context.Context, marketID string) (model.OrderbookSnapshot, error)
	MarketByConditionID(ctx context.Context, conditionID string) (model.Market, error)

	// CreatePosition, RecordTrade and ClosePosition each commit on their
	// own. They are not grouped into a per-tick transaction: a failure
	// part-way through a tick leaves the writes already made in place.
	CreatePosition(ctx context.Context, p model.Position) error
	RecordTrade(ctx context.Context, t model.Trade) error
	ClosePosition(ctx context.Context, positionID string, status model.PositionStatus) error

	// LoadResolutions and LoadPriceHistory are backtest-only, finite
	// iterators over sorted rows.
	LoadResolutions(ctx context.Context, assets []model.Asset, timeframe model.Timeframe) ([]model.MarketResolution, error)
	LoadPriceHistory(ctx context.Context, conditionID string, window [2]time.Time) ([]model.PriceSnapshot, error)

	// SaveBacktestRun persists a completed backtest run and returns its ID.
	SaveBacktestRun(ctx context.Context, run model.BacktestRun) (int64, error)
	LoadBacktestRun(ctx context.Context, id int64) (model.BacktestRun, error)

	// SaveSession and LoadSession persist/restore a BotSession checkpoint.
	SaveSession(ctx context.Context, session *model.BotSession) error
	LoadSession(ctx context.Context, id string) (*model.BotSession, error)

	Close() error
}
