package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harplab/site-api/internal/metrics"
)

// Metrics records a counter and latency observation per request, labeled
// by the chi route pattern rather than the raw path so /articles/{id}
// stays one series regardless of how many articles exist.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			collector.Record(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
