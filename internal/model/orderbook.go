package model

import (
	"time"

	"github.com/cryptoedge/bot/internal/freshness"
	"github.com/shopspring/decimal"
)

// OrderbookSnapshot is the best bid/ask for one token at a capture time.
// Depth beyond best-of-book is intentionally omitted: no detector in this
// system needs more than top-of-book to size a fill.
type OrderbookSnapshot struct {
	MarketID    string
	TokenID     string
	BestBid     decimal.Decimal
	BestBidSize decimal.Decimal
	BestAsk     decimal.Decimal
	BestAskSize decimal.Decimal
	CapturedAt  time.Time
}

// IsFresh reports whether the snapshot was captured within maxAge of now.
func (s OrderbookSnapshot) IsFresh(now time.Time, maxAge time.Duration) bool {
	return freshness.Fresh(now, s.CapturedAt, maxAge)
}

// Candle is one OHLCV bar for an asset at a fixed interval.
type Candle struct {
	Asset     Asset
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Return is (close-open)/open. Returns zero when Open is zero rather than
// dividing by zero.
func (c Candle) Return() decimal.Decimal {
	if c.Open.IsZero() {
		return decimal.Zero
	}
	return c.Close.Sub(c.Open).Div(c.Open)
}
