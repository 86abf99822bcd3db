package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/espp/tuition-management/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// RequestID tags every request with a trace id, honoring one supplied by the
// caller so a gateway in front can correlate its own logs with ours. The id
// is attached to the context logger and echoed back in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		w.Header().Set(traceHeader, traceID)

		ctx := logger.With(r.Context(), "trace_id", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
