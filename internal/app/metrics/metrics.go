package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pokerbase",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pokerbase",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pokerbase",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	flowRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pokerbase",
			Subsystem: "authflow",
			Name:      "refreshes_total",
			Help:      "Total number of auth flow refresh resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	sessionsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pokerbase",
			Subsystem: "sessions",
			Name:      "recorded_total",
			Help:      "Total number of poker sessions recorded.",
		},
		[]string{"game_type"},
	)

	messagesBroadcast = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pokerbase",
			Subsystem: "groups",
			Name:      "messages_broadcast_total",
			Help:      "Total number of group chat messages broadcast to live subscribers.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		flowRefreshes,
		sessionsRecorded,
		messagesBroadcast,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
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
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordFlowRefresh counts an auth flow refresh resolution.
func RecordFlowRefresh(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	flowRefreshes.WithLabelValues(outcome).Inc()
}

// RecordSession counts a recorded poker session.
func RecordSession(gameType string) {
	if gameType == "" {
		gameType = "unknown"
	}
	sessionsRecorded.WithLabelValues(gameType).Inc()
}

// RecordBroadcast counts a group message fan-out.
func RecordBroadcast() {
	messagesBroadcast.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource ids so metric labels stay low-cardinality.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) == 1 {
		return "/" + parts[0]
	}
	return "/" + parts[0] + "/:id"
}
