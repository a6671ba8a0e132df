package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoverTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_monitor_discover_total",
		Help: "Total number of discover() calls",
	})

	discoverCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_monitor_discover_cache_hits_total",
		Help: "Total number of discover() calls served from the cached list",
	})

	discoverDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_monitor_discover_duration_seconds",
		Help:    "Duration of a discover() refresh against the repository",
		Buckets: prometheus.DefBuckets,
	})

	marketsFilteredExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_monitor_markets_filtered_expired_total",
		Help: "Markets dropped by discover() for being already expired",
	})

	marketsFilteredHorizonTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_monitor_markets_filtered_horizon_total",
		Help: "Markets dropped by discover() for exceeding max_time_to_expiry",
	})

	priceUpdateErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_monitor_price_update_errors_total",
		Help: "Total number of failed per-market price refreshes in update_all_prices",
	})

	unknownAssetTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_monitor_unknown_asset_total",
		Help: "Total number of markets whose asset string fell back to OTHER",
	})
)
