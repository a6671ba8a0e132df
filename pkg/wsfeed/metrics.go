package wsfeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	clientsConnectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_wsfeed_clients_connected_total",
		Help: "Total dashboard WebSocket clients that have connected",
	})

	eventsBroadcastTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_wsfeed_events_broadcast_total",
		Help: "Total events broadcast to dashboard clients, by event type",
	}, []string{"type"})
)
