package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	positionsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_execution_positions_opened_total",
		Help: "Total positions opened, by opportunity kind",
	}, []string{"kind"})

	positionsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_execution_positions_settled_total",
		Help: "Total positions settled",
	})
)
