package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bakery",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders placed at checkout",
		},
		[]string{"delivery_method"},
	)

	OrderUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bakery",
			Subsystem: "orders",
			Name:      "updates_total",
			Help:      "Order updates by outcome",
		},
		[]string{"outcome"},
	)

	CheckoutRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bakery",
			Subsystem: "orders",
			Name:      "checkout_rejections_total",
			Help:      "Checkouts rejected before an order was created",
		},
		[]string{"reason"},
	)

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bakery",
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Committed status changes by target status",
		},
		[]string{"status"},
	)

	VerificationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bakery",
			Subsystem: "orders",
			Name:      "verification_attempts_total",
			Help:      "Handoff code submissions by result",
		},
		[]string{"result"},
	)

	StockReserved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bakery",
			Subsystem: "catalog",
			Name:      "stock_reserved_units_total",
			Help:      "Units of stock reserved by checkouts",
		},
	)
)

func init() {
	Registry.MustRegister(OrdersCreated, OrderUpdates, CheckoutRejections, StatusTransitions, VerificationAttempts, StockReserved)
}
