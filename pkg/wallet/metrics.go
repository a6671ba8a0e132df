package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OrdersSignedTotal tracks how many thin orders this signer has signed.
	OrdersSignedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_wallet_orders_signed_total",
		Help: "Total number of thin signed orders produced",
	})

	// SignErrorsTotal tracks signing failures.
	SignErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_wallet_sign_errors_total",
		Help: "Total number of signing failures",
	})
)
