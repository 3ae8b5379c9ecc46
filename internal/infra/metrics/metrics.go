// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	accessEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_events_total",
			Help: "Processed access events by operation (grant/revoke) and result (applied/created/filled/out_of_turn).",
		},
		[]string{"op", "result"},
	)

	outOfTurnEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_out_of_turn_events_total",
			Help: "Events accepted but not applied because a logically later event already won.",
		},
		[]string{"op"},
	)

	recurringCharges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_charges_total",
			Help: "Recurring charge outcomes (success/fail/skipped/deactivated/error).",
		},
		[]string{"result"},
	)

	chargePreconditionStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_charge_precondition_stops_total",
			Help: "Charge attempts stopped by a business precondition, by reason.",
		},
		[]string{"reason"},
	)

	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_cache_requests_total",
			Help: "Window-index cache requests by key kind and result (hit/miss/bypass).",
		},
		[]string{"kind", "result"},
	)

	deadLetters = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_dead_letters_total",
			Help: "Inbound shop events persisted to the dead-letter sink.",
		},
		[]string{"event_type"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			accessEvents, outOfTurnEvents,
			recurringCharges, chargePreconditionStops,
			cacheRequests, deadLetters,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncAccessEvent(op, result string) {
	accessEvents.WithLabelValues(norm(op), norm(result)).Inc()
}

func IncOutOfTurn(op string) {
	outOfTurnEvents.WithLabelValues(norm(op)).Inc()
}

func IncRecurringCharge(result string) {
	recurringCharges.WithLabelValues(norm(result)).Inc()
}

func IncChargePreconditionStop(reason string) {
	chargePreconditionStops.WithLabelValues(norm(reason)).Inc()
}

func IncCacheRequest(kind, result string) {
	cacheRequests.WithLabelValues(norm(kind), norm(result)).Inc()
}

func IncDeadLetter(eventType string) {
	deadLetters.WithLabelValues(norm(eventType)).Inc()
}
