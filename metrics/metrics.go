// Package metrics exposes Prometheus collectors for the HTTP layer
// and the lookup tree lifecycle.
package metrics

import (
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// reqDuration is a histogram of HTTP request durations in seconds, labeled
// by path, method, and status code.
var reqDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
	},
	[]string{"path", "method", "status"},
)

// TreeRefreshTotal counts lookup tree rebuild attempts, labeled by
// outcome: "ok" (both sources loaded), "partial" (one source failed,
// the other's cached data was reused), or "no_update" (both sources
// failed, the published tree is unchanged).
var TreeRefreshTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pacserver_tree_refresh_total",
		Help: "Count of lookup tree refresh attempts by result.",
	},
	[]string{"result"},
)

// TreeElements reports the number of joined (zone, template) elements
// that went into the currently published lookup tree.
var TreeElements = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "pacserver_tree_elements",
		Help: "Number of elements in the currently published lookup tree.",
	},
)

// RegisterDefault registers the default Go runtime and process collectors
// plus this package's own collectors. It is safe (and intended) to call
// this once at startup.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "tree refresh counter", TreeRefreshTotal)
	mustRegister(logger, "tree elements gauge", TreeElements)
}

// mustRegister attempts to register a Prometheus collector. If registration
// fails for a reason other than AlreadyRegisteredError, it logs a fatal error
// or panics if no logger is provided.
func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		if logger != nil {
			logger.Fatal("failed to register "+name, zap.Error(err))
		} else {
			panic("metrics: failed to register " + name + ": " + err.Error())
		}
	}
}

// maxPathLabelLength is the maximum length for the path label to prevent
// unbounded cardinality and memory issues in Prometheus.
const maxPathLabelLength = 256

// HTTPMetrics is a middleware that records request duration into the
// http_request_duration_seconds histogram, keyed by chi route pattern
// rather than the raw request path to avoid cardinality explosion from
// the {ip} and {len} URL parameters.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()
		statusCode := ww.Status()
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		if statusCode < 100 || statusCode > 599 {
			statusCode = http.StatusInternalServerError
		}

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		if len(path) > maxPathLabelLength {
			truncateLen := maxPathLabelLength - 3
			if truncateLen < 1 {
				truncateLen = 1
			}
			path = truncateUTF8(path, truncateLen) + "..."
		}

		reqDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(statusCode),
		).Observe(duration)
	})
}

// Handler returns an http.Handler that exposes the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// truncateUTF8 truncates s to at most maxBytes bytes without splitting
// multi-byte UTF-8 characters.
func truncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
