package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Timeout bounds a request's handling time, answering 408 if next has not
// finished writing by the deadline. next keeps running in its goroutine
// after the deadline fires; the handler itself cannot be preempted, only
// its response.
func Timeout(logger *zap.Logger, timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			done := make(chan struct{})
			go func() {
				defer func() {
					if err := recover(); err != nil {
						logger.Error("panic in timed handler",
							zap.String("request_id", GetRequestIDFromRequest(r)), zap.Any("panic", err))
					}
				}()
				next.ServeHTTP(w, r)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn("request timeout",
					zap.String("request_id", GetRequestIDFromRequest(r)), zap.Duration("timeout", timeout))
				if w.Header().Get("Content-Type") == "" {
					Error(w, http.StatusRequestTimeout, "request timeout")
				}
			}
		})
	}
}
