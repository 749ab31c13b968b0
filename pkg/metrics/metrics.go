package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records bearer-token authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PermissionChecks counts note permission evaluations and their outcome (allow|deny|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_permission_checks_total",
			Help: "Total number of note permission checks",
		},
		[]string{"level", "result"},
	)

	// RealtimeConnections tracks websocket connections currently registered with the hub.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkwell_realtime_connections",
			Help: "Number of live realtime connections",
		},
	)

	// RealtimeRooms tracks note rooms with at least one present member.
	RealtimeRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkwell_realtime_rooms",
			Help: "Number of occupied note rooms",
		},
	)

	// RealtimeEvents counts events fanned out to room members by event name.
	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_realtime_events_total",
			Help: "Total number of realtime events broadcast to rooms",
		},
		[]string{"event"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
