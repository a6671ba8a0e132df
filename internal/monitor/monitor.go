// Package monitor discovers eligible markets under venue/asset filters,
// attaches the freshest orderbook snapshot to each, and exposes the active
// (non-expired) set to detectors. It is the only component that talks to
// the repository's hot-path read query; every detector downstream consumes
// the slice this package hands back.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cryptoedge/bot/internal/model"
	"github.com/cryptoedge/bot/internal/repository"
	"github.com/cryptoedge/bot/pkg/cache"
)

const (
	activeMarketsCacheKey = "monitor:active_markets"
	discoverCacheTTL       = 60 * time.Second
)

// Config configures a Monitor.
type Config struct {
	Repository        repository.Repository
	Cache             cache.Cache
	Assets            []model.Asset
	MaxTimeToExpiry   time.Duration
	MaxSnapshotAge    time.Duration
	Logger            *zap.Logger
}

// Monitor tracks the currently active market set.
type Monitor struct {
	repo            repository.Repository
	cache           cache.Cache
	assets          map[model.Asset]bool
	maxTimeToExpiry time.Duration
	maxSnapshotAge  time.Duration
	logger          *zap.Logger

	mu      sync.RWMutex
	indexed map[string]model.Market // by condition ID, set by the last discover()
}

// New builds a Monitor. A nil or empty Assets filter admits every asset.
func New(cfg Config) *Monitor {
	assetSet := make(map[model.Asset]bool, len(cfg.Assets))
	for _, a := range cfg.Assets {
		assetSet[a] = true
	}
	return &Monitor{
		repo:            cfg.Repository,
		cache:           cfg.Cache,
		assets:          assetSet,
		maxTimeToExpiry: cfg.MaxTimeToExpiry,
		maxSnapshotAge:  cfg.MaxSnapshotAge,
		logger:          cfg.Logger,
		indexed:         make(map[string]model.Market),
	}
}

// Discover loads all eligible markets, drops expired ones and any whose
// time to expiry exceeds maxTimeToExpiry, attaches the freshest snapshot,
// and indexes the result by condition ID. The upstream list is cached for
// discoverCacheTTL; forceRefresh bypasses and invalidates that cache.
func (m *Monitor) Discover(ctx context.Context, forceRefresh bool) ([]model.Market, error) {
	discoverTotal.Inc()

	if !forceRefresh && m.cache != nil {
		if cached, ok := m.cache.Get(activeMarketsCacheKey); ok {
			if markets, ok := cached.([]model.Market); ok {
				discoverCacheHitsTotal.Inc()
				return markets, nil
			}
		}
	}

	if forceRefresh && m.cache != nil {
		m.cache.Delete(activeMarketsCacheKey)
	}

	start := time.Now()
	raw, err := m.repo.FetchActiveMarketsWithFreshOrderbook(ctx, m.maxSnapshotAge)
	discoverDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, model.NewError(model.ErrTransport, "monitor.discover", err)
	}

	now := time.Now()
	filtered := make([]model.Market, 0, len(raw))
	indexed := make(map[string]model.Market, len(raw))
	for _, mkt := range raw {
		if len(m.assets) > 0 && !m.assets[mkt.Asset] {
			continue
		}
		if mkt.Asset == model.AssetOther {
			unknownAssetTotal.Inc()
			m.logger.Debug("unknown-asset-market", zap.String("market_id", mkt.ID), zap.String("name", mkt.Name))
		}
		if mkt.IsExpired(now) {
			marketsFilteredExpiredTotal.Inc()
			continue
		}
		if m.maxTimeToExpiry > 0 && mkt.TimeToExpiry(now) > m.maxTimeToExpiry {
			marketsFilteredHorizonTotal.Inc()
			continue
		}
		filtered = append(filtered, mkt)
		indexed[mkt.ID] = mkt
	}

	m.mu.Lock()
	m.indexed = indexed
	m.mu.Unlock()

	if m.cache != nil {
		m.cache.Set(activeMarketsCacheKey, filtered, discoverCacheTTL)
	}

	m.logger.Debug("discover-complete",
		zap.Int("raw", len(raw)),
		zap.Int("active", len(filtered)))

	return filtered, nil
}

// UpdateAllPrices refreshes the orderbook-derived price fields of markets
// in place, as a single logical batch. A failure on one market is logged
// and skipped; it never aborts the remaining refreshes.
func (m *Monitor) UpdateAllPrices(ctx context.Context, markets []model.Market) {
	for i := range markets {
		snap, err := m.repo.LatestOrderbook(ctx, markets[i].ID)
		if err != nil {
			priceUpdateErrorsTotal.Inc()
			m.logger.Warn("price-update-failed", zap.String("market_id", markets[i].ID), zap.Error(err))
			continue
		}
		if snap.TokenID == markets[i].NoTokenID {
			markets[i].NoBid = snap.BestBid
			markets[i].NoAsk = snap.BestAsk
		} else {
			markets[i].YesBid = snap.BestBid
			markets[i].YesAsk = snap.BestAsk
		}
		markets[i].FetchedAt = snap.CapturedAt
	}
}

// ByID returns the market indexed under id by the last Discover call.
func (m *Monitor) ByID(id string) (model.Market, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mkt, ok := m.indexed[id]
	return mkt, ok
}
