package matcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pairsComparedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_matcher_pairs_compared_total",
		Help: "Total number of market pairs scored by the event matcher",
	})

	matchesFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_matcher_matches_found_total",
		Help: "Total number of market pairs that cleared the confidence threshold",
	})
)
