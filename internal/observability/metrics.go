package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldlink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total status API requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "worldlink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Status API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)

	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldlink",
			Subsystem: "session",
			Name:      "frames_received_total",
			Help:      "Decoded inbound frames by message.",
		},
		[]string{"message"},
	)
	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldlink",
			Subsystem: "session",
			Name:      "frames_sent_total",
			Help:      "Outbound frames written by message.",
		},
		[]string{"message"},
	)
	decodeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "worldlink",
			Subsystem: "session",
			Name:      "decode_errors_total",
			Help:      "Inbound frames discarded because they could not be decoded.",
		},
	)
	unknownMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "worldlink",
			Subsystem: "session",
			Name:      "unknown_messages_total",
			Help:      "Inbound frames discarded because no handler is registered for their id.",
		},
	)
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldlink",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by target state.",
		},
		[]string{"state"},
	)
	handshakeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "worldlink",
			Subsystem: "session",
			Name:      "handshake_duration_seconds",
			Help:      "Time from transport established to join sent.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	dispatchDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "worldlink",
			Subsystem: "dispatch",
			Name:      "queue_depth",
			Help:      "Actions waiting for the next drain.",
		},
	)
	dispatchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "worldlink",
			Subsystem: "dispatch",
			Name:      "action_failures_total",
			Help:      "Dispatched actions that panicked.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			framesReceived,
			framesSent,
			decodeErrors,
			unknownMessages,
			transitions,
			handshakeDuration,
			dispatchDepth,
			dispatchFailures,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrameReceived(message string) {
	RegisterMetrics()
	framesReceived.WithLabelValues(message).Inc()
}

func RecordFrameSent(message string) {
	RegisterMetrics()
	framesSent.WithLabelValues(message).Inc()
}

func RecordDecodeError() {
	RegisterMetrics()
	decodeErrors.Inc()
}

func RecordUnknownMessage() {
	RegisterMetrics()
	unknownMessages.Inc()
}

func RecordTransition(state string) {
	RegisterMetrics()
	transitions.WithLabelValues(state).Inc()
}

func RecordHandshake(duration time.Duration) {
	RegisterMetrics()
	handshakeDuration.Observe(duration.Seconds())
}

func SetDispatchDepth(n int) {
	RegisterMetrics()
	dispatchDepth.Set(float64(n))
}

func RecordDispatchFailure() {
	RegisterMetrics()
	dispatchFailures.Inc()
}
