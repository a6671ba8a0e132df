// Package venue declares the external read interface every upstream market
// operator must satisfy. Concrete exchange-specific HTTP/WebSocket clients
// are out of scope for this system (spec.md §1); this package defines only
// the contract the monitor and repository consume, so a venue adapter can
// be plugged in without touching any detector.
package venue

import (
	"context"
	"time"

	"github.com/cryptoedge/bot/internal/model"
)

// Reader is the read-only surface a venue adapter must implement.
type Reader interface {
	// ListActiveMarkets returns non-expired markets for the given asset
	// filter whose expiry is within maxExpiry of now.
	ListActiveMarkets(ctx context.Context, venue model.Venue, assets []model.Asset, maxExpiry time.Duration) ([]model.Market, error)

	// LatestOrderbook returns the most recent snapshot for a market.
	LatestOrderbook(ctx context.Context, marketID string) (model.OrderbookSnapshot, error)

	// ResolvedMarkets returns markets that resolved within the window,
	// restricted to the given assets/timeframe when non-empty.
	ResolvedMarkets(ctx context.Context, window [2]time.Time, assets []model.Asset, timeframe model.Timeframe) ([]model.MarketResolution, error)

	// PriceHistory returns a sorted, finite sequence of (timestamp, price)
	// points for one token between t0 and t1 at the given fidelity.
	PriceHistory(ctx context.Context, tokenID string, window [2]time.Time, fidelity time.Duration) ([]PricePoint, error)
}

// PricePoint is a single timestamped price sample.
type PricePoint struct {
	Timestamp time.Time
	Price     float64 // converted to decimal by the caller before use in any ledger path
}
