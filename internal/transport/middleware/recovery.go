package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/espp/tuition-management/pkg/logger"
)

// RecoveryMiddleware turns panics into a 500 instead of killing the process.
// It logs through the context logger so the stack trace carries the trace id.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"type":"internal","code":"INTERNAL_ERROR","message":"internal server error"}}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
