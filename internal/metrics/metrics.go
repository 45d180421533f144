// Package metrics holds the Prometheus collectors for the widget server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "platgeo"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Widget metrics
	WidgetsMounted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "widget",
		Name:      "mounted_total",
		Help:      "Widgets initialised, by kind",
	}, []string{"kind"})

	MountFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "widget",
		Name:      "mount_failures_total",
		Help:      "Page scans that failed to initialise at least one widget",
	})

	DrawEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "widget",
		Name:      "draw_events_total",
		Help:      "Draw events applied to polygon choosers, by action and outcome",
	}, []string{"action", "outcome"})

	ZoomChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "widget",
		Name:      "zoom_changes_total",
		Help:      "Zoom level changes caused by zoom controls and boundary gestures, by source",
	}, []string{"source"})

	PopupsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "widget",
		Name:      "popups_opened_total",
		Help:      "Marker popups opened",
	})

	ActivePages = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "active_pages",
		Help:      "Widget pages currently held in memory",
	})

	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sse",
		Name:      "subscribers",
		Help:      "Open editor event streams",
	})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streams working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware records request metrics. route maps a request to a
// low-cardinality path label.
func Middleware(route func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := route(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the Prometheus /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
