package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RequestLogging logs one structured line per request: method, path,
// status, latency, and request id, in the field style the rest of the
// pack's zap usage follows (internal/infrastructure/config's
// logger.Info("...", zap.String(...)) shape).
func RequestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info("http request",
				zap.String("request_id", GetRequestIDFromRequest(r)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.statusCode),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}
