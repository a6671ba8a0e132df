package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketResolution is a resolved market replayed by the backtest simulator.
// One row exists per condition ID.
type MarketResolution struct {
	ConditionID  string
	Asset        Asset
	Timeframe    Timeframe
	EndTime      time.Time
	YesTokenID   string
	NoTokenID    string
	WinningSide  TradeSide
}

// PriceSnapshot is one point of a market's pre-resolution price history.
// Invariant: YesPrice + NoPrice is approximately 1 before resolution.
type PriceSnapshot struct {
	ConditionID string
	YesTokenID  string
	NoTokenID   string
	YesPrice    decimal.Decimal
	NoPrice     decimal.Decimal
	Timestamp   time.Time
}

// OrderType is how a backtest strategy's signal is meant to fill.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// BacktestTrade is one simulated fill produced by replaying a resolution
// against a strategy.
type BacktestTrade struct {
	ConditionID     string
	Side            TradeSide
	OrderType       OrderType
	FillPrice       decimal.Decimal
	Shares          decimal.Decimal
	Cost            decimal.Decimal
	Payout          decimal.Decimal
	PnL             decimal.Decimal
	TimeToExpiry    time.Duration
	Won             bool
}

// BacktestMetrics aggregates a run's trades into the reporting fields named
// in spec.md §4.11.
type BacktestMetrics struct {
	TotalSignals   int
	OrdersPlaced   int
	OrdersFilled   int
	WinningTrades  int
	LosingTrades   int
	TotalInvested  decimal.Decimal
	TotalPayout    decimal.Decimal
	NetPnL         decimal.Decimal
	WinRate        decimal.Decimal
	FillRate       decimal.Decimal
	ROI            decimal.Decimal
	ProfitFactor   decimal.Decimal
	MaxDrawdown    decimal.Decimal
}

// BacktestRun is the persisted result of one simulator invocation.
type BacktestRun struct {
	ID              int64
	StrategyName    string
	StrategyParams  map[string]string
	StartDate       time.Time
	EndDate         time.Time
	Assets          []Asset
	Timeframes      []Timeframe
	Trades          []BacktestTrade
	Metrics         BacktestMetrics
	ExecutedAt      time.Time
	DurationSeconds float64
}
