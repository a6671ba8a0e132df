package scanloop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_scanloop_ticks_total",
		Help: "Total scan loop ticks executed",
	})

	tradesOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_scanloop_trades_opened_total",
		Help: "Total trades opened by the scan loop",
	})

	loopStateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_scanloop_state_transitions_total",
		Help: "Total scan loop state transitions, by destination state",
	}, []string{"state"})
)
