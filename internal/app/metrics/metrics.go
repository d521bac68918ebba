package metrics

import (
	"bufio"
	"fmt"
	"net"
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
			Namespace: "localpulse",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localpulse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localpulse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	reviewsSynced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localpulse",
			Subsystem: "reviews",
			Name:      "synced_total",
			Help:      "Total number of reviews pulled from Google Business Profile.",
		},
		[]string{"location_id"},
	)

	postsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localpulse",
			Subsystem: "social",
			Name:      "posts_published_total",
			Help:      "Total number of social post publish attempts.",
		},
		[]string{"channel", "success"},
	)

	assistGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localpulse",
			Subsystem: "assist",
			Name:      "generations_total",
			Help:      "Total number of AI generation requests.",
		},
		[]string{"kind", "success"},
	)

	outboundRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localpulse",
			Subsystem: "outbound",
			Name:      "requests_total",
			Help:      "Total number of third-party API requests.",
		},
		[]string{"provider", "status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		reviewsSynced,
		postsPublished,
		assistGenerations,
		outboundRequests,
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

// RecordReviewsSynced counts reviews pulled during a sync pass.
func RecordReviewsSynced(locationID string, count int) {
	if count <= 0 {
		return
	}
	if locationID == "" {
		locationID = "unknown"
	}
	reviewsSynced.WithLabelValues(locationID).Add(float64(count))
}

// RecordPostPublish counts a per-channel publish attempt.
func RecordPostPublish(channel string, success bool) {
	postsPublished.WithLabelValues(channel, strconv.FormatBool(success)).Inc()
}

// RecordAssistGeneration counts an AI generation request.
func RecordAssistGeneration(kind string, success bool) {
	assistGenerations.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}

// RecordOutboundRequest counts a third-party API call by provider and HTTP
// status class.
func RecordOutboundRequest(provider string, status int) {
	class := "error"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	outboundRequests.WithLabelValues(provider, class).Inc()
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

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "tenants" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/tenants"
	}
	if len(parts) == 2 {
		return "/tenants/:tenant"
	}
	return "/tenants/" + parts[2]
}

// Hijack keeps websocket upgrades working through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
