package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"salarizare/internal/platform/logger"
)

const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID reuses a caller supplied id or generates one, echoes it back and
// attaches a request scoped logger to the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), ctxKey{}, requestID)
		ctx = logger.WithRequestID(requestID).WithContext(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func GetRequestID(r *http.Request) string {
	return RequestIDFromContext(r.Context())
}
