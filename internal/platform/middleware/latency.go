package middleware

import (
	"net/http"
	"strconv"
	"time"

	"givehub/internal/platform/metrics"
)

// Latency records request duration into the platform metrics. Nil metrics
// disables observation (handler tests).
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.ObserveRequest(r.Method, strconv.Itoa(rec.status), time.Since(start).Seconds())
		})
	}
}
