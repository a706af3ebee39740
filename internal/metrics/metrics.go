package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "integral",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "integral",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "integral",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	notificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "integral",
			Subsystem: "notifications",
			Name:      "deliveries_total",
			Help:      "Total notification deliveries by type, channel and outcome.",
		},
		[]string{"type", "channel", "status"},
	)

	notificationsSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "integral",
			Subsystem: "notifications",
			Name:      "suppressed_total",
			Help:      "Notifications suppressed by preference or cooldown.",
		},
		[]string{"type", "channel", "reason"},
	)

	pushDeactivations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "integral",
			Subsystem: "notifications",
			Name:      "push_subscription_deactivations_total",
			Help:      "Push subscriptions deactivated after delivery failures.",
		},
	)

	emailQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "integral",
			Subsystem: "email",
			Name:      "queue_depth",
			Help:      "Pending items in the email queue at last drain.",
		},
	)

	emailAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "integral",
			Subsystem: "email",
			Name:      "send_attempts",
			Help:      "Attempts used before an email reached a terminal status.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		notificationsDelivered,
		notificationsSuppressed,
		pushDeactivations,
		emailQueueDepth,
		emailAttempts,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordDelivery counts one delivery outcome.
func RecordDelivery(notificationType, channel, status string) {
	notificationsDelivered.WithLabelValues(notificationType, channel, status).Inc()
}

// RecordSuppressed counts a channel skipped before delivery.
func RecordSuppressed(notificationType, channel, reason string) {
	notificationsSuppressed.WithLabelValues(notificationType, channel, reason).Inc()
}

// RecordPushDeactivation counts a subscription deactivation.
func RecordPushDeactivation() {
	pushDeactivations.Inc()
}

// SetEmailQueueDepth records the pending queue size.
func SetEmailQueueDepth(n int) {
	emailQueueDepth.Set(float64(n))
}

// RecordEmailOutcome records attempts used for a terminal email status.
func RecordEmailOutcome(status string, attempts int) {
	emailAttempts.WithLabelValues(status).Observe(float64(attempts))
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		next.ServeHTTP(rec, r)
		httpInFlight.Dec()

		elapsed := time.Since(start).Seconds()
		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(elapsed)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
