package spread

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	marketsScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_spread_markets_scanned_total",
		Help: "Total number of markets evaluated by the spread detector",
	})

	opportunitiesFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_spread_opportunities_found_total",
		Help: "Total number of spread opportunities emitted",
	})

	scanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_spread_scan_duration_seconds",
		Help:    "Duration of one spread detector tick over a market slice",
		Buckets: prometheus.DefBuckets,
	})
)
