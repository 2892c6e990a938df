package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/reelspro/reelspro/internal/infra/context"
	"github.com/reelspro/reelspro/internal/util/encoding"
)

const TraceIDHeader = "X-Request-ID"

// TracingMiddleware creates middleware that adds request tracing.
// A well-formed X-Request-ID header is reused, otherwise a new UUIDv7 is generated.
// The trace ID is added to the request context and echoed in the response.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := getTraceID(r)
		if traceID != "" {
			w.Header().Set(TraceIDHeader, traceID)
		}

		ctx := context_.WithTraceID(r.Context(), traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getTraceID(r *http.Request) string {
	if traceID := encoding.NormalizeCrockfordB32LC(r.Header.Get(TraceIDHeader)); encoding.IsCrockfordB32LC(traceID) {
		return traceID
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}

	return encoding.EncodeCrockfordB32LC(id[:])
}
