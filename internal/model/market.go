// Package model holds the domain entities shared across detectors, the
// repository, the executor and the backtest simulator. All monetary and
// probability fields are fixed-point decimal.Decimal; none are float64.
package model

import (
	"time"

	"github.com/cryptoedge/bot/internal/freshness"
	"github.com/shopspring/decimal"
)

// Venue identifies an external market operator.
type Venue string

// Asset is a tracked crypto underlying. Unknown strings parse to AssetOther
// rather than failing, per the monitor's tolerant-enum-parsing requirement.
type Asset string

const (
	AssetBTC   Asset = "BTC"
	AssetETH   Asset = "ETH"
	AssetSOL   Asset = "SOL"
	AssetXRP   Asset = "XRP"
	AssetDOGE  Asset = "DOGE"
	AssetOther Asset = "OTHER"
)

// ParseAsset maps a free-form string to a known Asset, defaulting to
// AssetOther. It never returns an error: unknown symbols are logged by the
// caller, not rejected here.
func ParseAsset(s string) Asset {
	switch Asset(s) {
	case AssetBTC, AssetETH, AssetSOL, AssetXRP, AssetDOGE:
		return Asset(s)
	default:
		return AssetOther
	}
}

// Timeframe is the resolution cadence of a directional contract.
type Timeframe string

const (
	Timeframe15Min    Timeframe = "15m"
	TimeframeHourly   Timeframe = "1h"
	TimeframeDaily    Timeframe = "1d"
	TimeframeUnknown  Timeframe = "OTHER"
)

// ParseTimeframe maps a free-form string to a known Timeframe, defaulting to
// TimeframeUnknown. Like ParseAsset, it never errors: the caller logs and
// moves on rather than rejecting the market.
func ParseTimeframe(s string) Timeframe {
	switch Timeframe(s) {
	case Timeframe15Min, TimeframeHourly, TimeframeDaily:
		return Timeframe(s)
	default:
		return TimeframeUnknown
	}
}

// MarketType distinguishes directional up/down contracts from other binary
// event types (e.g. cross-venue crypto-price threshold markets).
type MarketType string

const (
	MarketTypeDirectional MarketType = "directional"
	MarketTypeCryptoPrice MarketType = "crypto_price"
	MarketTypeOther       MarketType = "other"
)

// Resolution is the settled outcome of a directional market.
type Resolution string

const (
	ResolutionUp      Resolution = "UP"
	ResolutionDown    Resolution = "DOWN"
	ResolutionUnknown Resolution = ""
)

// Market is a single binary prediction-market contract on one venue.
//
// Invariants: 0 <= YesAsk,NoAsk <= 1; YesBid <= YesAsk; NoBid <= NoAsk;
// Resolved=true implies Resolution is UP or DOWN.
type Market struct {
	ID          string
	Venue       Venue
	Asset       Asset
	Timeframe   Timeframe
	MarketType  MarketType
	Name        string // raw market question/title, fed to the event matcher
	EndTime     time.Time
	YesTokenID  string
	NoTokenID   string
	YesAsk      decimal.Decimal
	YesBid      decimal.Decimal
	NoAsk       decimal.Decimal
	NoBid       decimal.Decimal
	Volume24h   decimal.Decimal
	Liquidity   decimal.Decimal
	FetchedAt   time.Time
	Resolved    bool
	Resolution  Resolution
}

// IsExpired reports whether the market's end time has passed as of now.
func (m Market) IsExpired(now time.Time) bool {
	return !now.Before(m.EndTime)
}

// IsStale reports whether the market's last fetch is older than maxAge.
func (m Market) IsStale(now time.Time, maxAge time.Duration) bool {
	return freshness.Stale(now, m.FetchedAt, maxAge)
}

// IsBinary reports whether the market has both legs populated — the only
// shape the spread, edge and mispricing detectors operate on.
func (m Market) IsBinary() bool {
	return m.YesTokenID != "" && m.NoTokenID != ""
}

// TimeToExpiry returns the duration remaining until EndTime, floored at 0.
func (m Market) TimeToExpiry(now time.Time) time.Duration {
	d := m.EndTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
