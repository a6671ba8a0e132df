package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide is the market leg a trade acts on.
type TradeSide string

const (
	TradeSideYes TradeSide = "YES"
	TradeSideNo  TradeSide = "NO"
)

// TradeAction is buy or sell.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// Trade is an immutable line item recorded by the executor. Trades are
// never mutated after creation; corrections happen by recording a new
// trade, never by editing an old one.
type Trade struct {
	ID         string
	Timestamp  time.Time
	MarketID   string
	Side       TradeSide
	Action     TradeAction
	Price      decimal.Decimal
	AmountUSD  decimal.Decimal
	Shares     decimal.Decimal
	Fee        decimal.Decimal
	DryRun     bool
}
