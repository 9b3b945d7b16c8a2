package middleware

import (
	"net/http"
	"time"

	"github.com/itchan-dev/imagestore/shared/logger"
	"github.com/itchan-dev/imagestore/shared/middleware/metrics"
)

// RequestLogger logs each HTTP request once it has been served.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := metrics.NewStatusRecorder(w)
		next.ServeHTTP(sr, r)
		logger.Log.Info("request",
			"method", r.Method,
			"route", metrics.RoutePattern(r),
			"path", r.URL.Path,
			"status", sr.StatusCode,
			"bytes", sr.Bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}
