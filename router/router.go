// Package router wires the chi router with the middleware stack and
// routes this service exposes.
package router

import (
	"net/http"
	"sync/atomic"

	"github.com/TimeForANinja/pacserver/httpapi"
	applog "github.com/TimeForANinja/pacserver/logging"
	appmw "github.com/TimeForANinja/pacserver/middleware"
	"github.com/TimeForANinja/pacserver/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxRequestBodyBytes bounds any request body this service might ever
// receive; it currently accepts none, but the guard is kept regardless
// (see middleware.LimitBodySize).
const maxRequestBodyBytes = 1 << 20 // 1 MiB

// New builds the chi.Router for this service: standard safety/metrics
// middleware, the query façade, and the /metrics and /healthz routes.
// ready is flipped to true once the cache's first build has completed;
// /healthz reports 200 only after that point.
func New(query *httpapi.Handler, eventLog, accessLog *zap.Logger, ready *atomic.Bool) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(applog.Recoverer(eventLog))
	r.Use(appmw.LimitBodySize(maxRequestBodyBytes))
	r.Use(metrics.HTTPMetrics)
	r.Use(applog.RequestLogger(accessLog))
	r.Use(appmw.CompressResponse)

	r.NotFound(appmw.NotFoundHandler(eventLog))
	r.MethodNotAllowed(appmw.MethodNotAllowedHandler(eventLog))

	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/healthz", healthHandler(ready))

	r.Get("/", query.Query)
	r.Get("/*", query.Query)

	return r
}

func healthHandler(ready *atomic.Bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready == nil || !ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
