package momentum

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsComputedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_momentum_signals_total",
		Help: "Total number of momentum signals computed",
	})

	zeroVolatilityTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_momentum_zero_volatility_total",
		Help: "Total number of candle windows with zero volatility (50/50 fallback)",
	})

	insufficientCandlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_momentum_insufficient_candles_total",
		Help: "Total number of calculate calls rejected for too few candles",
	})
)
