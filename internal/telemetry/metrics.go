// Package telemetry holds the process-wide Prometheus metrics. Label values
// are drawn from fixed sets only; no per-character or per-weapon labels.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simulation
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "firefight_tick_duration_seconds",
		Help:    "Time spent in one simulation step",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})

	characterCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firefight_characters",
		Help: "Characters currently in the world",
	})

	// Weapons
	shotsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firefight_shots_fired_total",
		Help: "Shots traced, by the role of the tracing process",
	}, []string{"role"}) // "authority", "replica"

	reloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firefight_reloads_total",
		Help: "Reload refills on the authority",
	}, []string{"result"}) // "applied", "empty"

	hitValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firefight_hit_validations_total",
		Help: "Client hit reports by verdict",
	}, []string{"verdict"})

	aimDot = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "firefight_hit_aim_dot",
		Help:    "Dot product between reported shoot direction and muzzle-to-impact direction",
		Buckets: []float64{-0.5, 0, 0.5, 0.8, 0.9, 0.95, 0.99, 1},
	})

	rejectedCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firefight_rejected_commands_total",
		Help: "Replica commands dropped by the authority",
	}, []string{"reason"})

	// Transport
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firefight_connections_active",
		Help: "Currently attached replica connections",
	})

	framesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firefight_frames_sent_total",
		Help: "Protocol frames written to replica connections",
	})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firefight_frames_dropped_total",
		Help: "Protocol frames that could not be queued or decoded",
	}, []string{"reason"}) // "queue_full", "encode", "decode", "inbox_full"

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firefight_connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"})

	// HTTP
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// Event log
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firefight_event_log_total",
		Help: "Events accepted by the combat audit trail",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firefight_event_log_dropped",
		Help: "Events dropped by rate limiting or buffer overrun",
	})
)

// RecordTick records step timing.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// SetCharacters updates the character gauge.
func SetCharacters(n int) { characterCount.Set(float64(n)) }

// RecordShot counts one traced shot. role is "authority" or "replica".
func RecordShot(role string) { shotsFired.WithLabelValues(role).Inc() }

// RecordReload counts one refill attempt. result is "applied" or "empty".
func RecordReload(result string) { reloads.WithLabelValues(result).Inc() }

// RecordHitValidation counts one ServerNotifyHit verdict.
func RecordHitValidation(verdict string) { hitValidations.WithLabelValues(verdict).Inc() }

// ObserveAimDot records aim sanity of a reported hit. Never enforced.
func ObserveAimDot(dot float64) { aimDot.Observe(dot) }

// RecordRejectedCommand counts a replica message the authority refused.
func RecordRejectedCommand(reason string) { rejectedCommands.WithLabelValues(reason).Inc() }

// SetConnections updates the attached connection gauge.
func SetConnections(n int) { connectionsActive.Set(float64(n)) }

// RecordFrameSent counts one written frame.
func RecordFrameSent() { framesSent.Inc() }

// RecordDroppedFrame counts a frame lost for reason.
func RecordDroppedFrame(reason string) { framesDropped.WithLabelValues(reason).Inc() }

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit".
func RecordConnectionRejected(reason string) { connectionRejected.WithLabelValues(reason).Inc() }

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateEventLogStats mirrors the audit trail counters.
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}
