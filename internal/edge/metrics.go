package edge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsComputedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_edge_signals_total",
		Help: "Total number of edge signals computed",
	})

	signalsWithEdgeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_edge_signals_with_edge_total",
		Help: "Total number of edge signals that recommended a side",
	})
)
