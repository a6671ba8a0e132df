package backtest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	runsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_backtest_runs_completed_total",
		Help: "Total backtest runs completed, by strategy",
	}, []string{"strategy"})

	tradesSimulatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_backtest_trades_simulated_total",
		Help: "Total simulated trades, by result",
	}, []string{"result"})
)
