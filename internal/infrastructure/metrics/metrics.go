// Package metrics provides Prometheus metrics for the call server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks the number of in-flight call sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callserver_active_sessions",
			Help: "Number of currently active call sessions",
		},
	)

	// SessionsCreated tracks the total number of sessions created.
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callserver_sessions_created_total",
			Help: "Total number of call sessions created",
		},
	)

	// SessionsRemoved tracks the total number of sessions removed.
	SessionsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callserver_sessions_removed_total",
			Help: "Total number of call sessions removed",
		},
	)

	// SegmentsFetched counts analysis segments received from upstream,
	// kept and dropped as duplicates.
	SegmentsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callserver_segments_fetched_total",
			Help: "Analysis segments fetched, partitioned by dedup outcome",
		},
		[]string{"outcome"},
	)

	// Resolutions counts resolved utterances by answer field class.
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callserver_resolutions_total",
			Help: "Caller utterances resolved, partitioned by answer field",
		},
		[]string{"field"},
	)

	// OracleLatency tracks reasoning oracle round-trip time.
	OracleLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "callserver_oracle_latency_seconds",
			Help:    "Duration of reasoning oracle invocations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// StreamConnections tracks attached observer streams.
	StreamConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callserver_stream_connections",
			Help: "Number of currently attached observer streams",
		},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callserver_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordRequest records one completed HTTP request.
func RecordRequest(method, endpoint, status string, duration float64) {
	HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration)
}

// RecordSessionCreated increments session creation metrics.
func RecordSessionCreated() {
	SessionsCreated.Inc()
	ActiveSessions.Inc()
}

// RecordSessionRemoved increments session removal metrics.
func RecordSessionRemoved() {
	SessionsRemoved.Inc()
	ActiveSessions.Dec()
}

// RecordSegment records one fetched segment's dedup outcome.
func RecordSegment(kept bool) {
	if kept {
		SegmentsFetched.WithLabelValues("kept").Inc()
		return
	}
	SegmentsFetched.WithLabelValues("duplicate").Inc()
}

// RecordResolution records one resolved utterance.
func RecordResolution(field string) {
	Resolutions.WithLabelValues(field).Inc()
}

// ObserveOracleLatency records one oracle round trip.
func ObserveOracleLatency(d time.Duration) {
	OracleLatency.Observe(d.Seconds())
}
