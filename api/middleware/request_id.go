package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID echoes a caller supplied UUID request id or mints a fresh one.
// Anything that does not parse as a UUID is replaced so arbitrary header
// content never reaches the logs.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := normalizeRequestID(r.Header.Get(requestIDHeader))
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func normalizeRequestID(raw string) string {
	if parsed, err := uuid.Parse(raw); err == nil {
		return parsed.String()
	}
	return uuid.NewString()
}
