// Package metrics exposes Prometheus counters and gauges for the
// coordinator's core components: orders, matches, channel-state
// transitions, and reservation-store occupancy. Instrumentation only —
// no aggregation or alerting pipeline, matching spec.md's metrics
// Non-goal. MustRegister exposes the collectors, but no package in this
// module increments or sets them, so every series stays at zero.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OrdersSubmittedTotal is the counter of orders accepted into the
	// book, labeled by type (market/limit) and direction (long/short).
	OrdersSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coordinator",
		Subsystem: "orderbook",
		Name:      "orders_submitted_total",
		Help:      "Total number of orders accepted into the book.",
	}, []string{"type", "direction"})

	// OrdersFailedTotal counts orders that ended in the Failed state,
	// labeled by the reason the orchestrator recorded.
	OrdersFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coordinator",
		Subsystem: "orderbook",
		Name:      "orders_failed_total",
		Help:      "Total number of orders that ended in the Failed state.",
	}, []string{"reason"})

	// MatchesTotal counts executed matches.
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coordinator",
		Subsystem: "orderbook",
		Name:      "matches_total",
		Help:      "Total number of executed order matches.",
	})

	// ChannelStateTransitionsTotal counts DLC channel state transitions,
	// labeled by the target state.
	ChannelStateTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coordinator",
		Subsystem: "dlc",
		Name:      "channel_state_transitions_total",
		Help:      "Total number of DLC channel state transitions, labeled by target state.",
	}, []string{"state"})

	// ReservationStoreSize is the gauge for the number of outpoints
	// currently reserved.
	ReservationStoreSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "coordinator",
		Subsystem: "wallet",
		Name:      "reservation_store_size",
		Help:      "Number of UTXO outpoints currently held in the reservation store.",
	})

	// CollaborativeRevertsProposedTotal is the counter of collaborative
	// revert proposals raised.
	CollaborativeRevertsProposedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coordinator",
		Subsystem: "revert",
		Name:      "proposed_total",
		Help:      "Total number of collaborative revert proposals raised.",
	})

	// CollaborativeRevertsConfirmedTotal counts successful confirmations.
	CollaborativeRevertsConfirmedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coordinator",
		Subsystem: "revert",
		Name:      "confirmed_total",
		Help:      "Total number of collaborative reverts successfully broadcast.",
	})
)

// MustRegister registers every collector above against reg. Called once
// from cmd/coordinatord at startup.
func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		OrdersSubmittedTotal,
		OrdersFailedTotal,
		MatchesTotal,
		ChannelStateTransitionsTotal,
		ReservationStoreSize,
		CollaborativeRevertsProposedTotal,
		CollaborativeRevertsConfirmedTotal,
	)
}
