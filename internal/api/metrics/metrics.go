// Package metrics defines and registers all custom Prometheus metrics for the
// share marketplace API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthFailuresTotal counts requests rejected by the auth chain.
// Label:
//   - reason: "missing_credentials", "invalid_credentials" or "role"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected during authentication or role checks.",
	},
	[]string{"reason"},
)

// ── Business metrics ──────────────────────────────────────────────────────────

// BusinessesCreatedTotal counts newly listed businesses.
var BusinessesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "businesses_created_total",
		Help:      "Total number of businesses created.",
	},
)

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts orders placed by buyers, replays excluded.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders created.",
	},
)

// OrderTransitionsTotal counts successful status changes.
// Label:
//   - to: the new order status ("accepted" or "rejected")
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of order status transitions, by target status.",
	},
	[]string{"to"},
)

// OrderTransitionRejectionsTotal counts accept/reject requests refused by the
// state machine or the ownership check.
// Label:
//   - reason: "not_owner", "already_accepted", "rejected_not_acceptable", "conflict"
var OrderTransitionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transition_rejections_total",
		Help:      "Total number of order transitions refused, by reason.",
	},
	[]string{"reason"},
)

// IdempotencyReplaysTotal counts order creations answered from an earlier
// request with the same Idempotency-Key.
var IdempotencyReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_replays_total",
		Help:      "Total number of order creations replayed from an Idempotency-Key.",
	},
)
