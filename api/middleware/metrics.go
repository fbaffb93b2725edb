package middleware

import (
	"net/http"
	"time"

	"github.com/bikebuddy/bikebuddy-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics records request latency labelled by the matched chi route pattern,
// so ids in the path do not explode label cardinality.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.Observe(route, r.Method, status, time.Since(start))
		})
	}
}
