// Package metrics defines the Prometheus metrics exposed on /metrics. It is
// the single source of truth for metric names, labels and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aklyplus"

// OrdersPlacedTotal counts orders created by customers.
var OrdersPlacedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	},
)

// OrderTransitionsTotal counts successful order status transitions.
// Label:
//   - status: the new status applied (e.g. "accepted", "delivered")
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of order status transitions applied.",
	},
	[]string{"status"},
)

// TransitionErrorsTotal counts rejected transition attempts.
// Label:
//   - reason: "invalid_transition", "not_found" or "forbidden"
var TransitionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transition_errors_total",
		Help:      "Total number of order transition attempts that failed validation.",
	},
	[]string{"reason"},
)

// BillingAccrualsTotal counts per-order fee accruals applied to restaurant
// ledgers.
var BillingAccrualsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_accruals_total",
		Help:      "Total number of per-order fees accrued to restaurant debt.",
	},
)

// BillingRolloversTotal counts daily-boundary rollovers applied to
// restaurant counters.
var BillingRolloversTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_rollovers_total",
		Help:      "Total number of daily counter rollovers performed.",
	},
)
