package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure|error).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusfix_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AccessDecisions counts access guard outcomes (allow|unauthenticated|forbidden).
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusfix_access_decisions_total",
			Help: "Total number of access guard decisions",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks active sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campusfix_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campusfix_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// TicketsSubmitted counts submitted tickets by kind (complaint|application).
	TicketsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusfix_tickets_submitted_total",
			Help: "Total number of submitted tickets",
		},
		[]string{"kind", "department"},
	)

	// TicketStatusChanges counts status updates by kind and resulting status.
	TicketStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusfix_ticket_status_changes_total",
			Help: "Total number of ticket status changes",
		},
		[]string{"kind", "status"},
	)

	// NotificationsCreated counts notifications written to the log, by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusfix_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	// EventsPublished counts lifecycle events handed to the broker (success|failure).
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusfix_events_published_total",
			Help: "Total number of ticket lifecycle events published",
		},
		[]string{"driver", "result"},
	)
)
