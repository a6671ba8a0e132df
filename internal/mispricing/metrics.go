package mispricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsEvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_mispricing_signals_evaluated_total",
		Help: "Total number of mispricing evaluations performed",
	})

	signalsDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_mispricing_signals_detected_total",
		Help: "Total number of mispricing signals that cleared all thresholds",
	})

	cheapSideFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_mispricing_cheap_side_fallbacks_total",
		Help: "Total number of signals produced by the no-Binance-data cheap side fallback",
	})

	noClearDirectionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_mispricing_no_clear_direction_total",
		Help: "Total number of evaluations where spot momentum gave no clear direction",
	})
)
