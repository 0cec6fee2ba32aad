package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/username/tradelog/backend/src/logger"
	"github.com/username/tradelog/backend/src/utils"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// APIKeyHeader carries the shared key that gates the /api routes.
const APIKeyHeader = "X-API-Key"

// ContextualLoggerMiddleware creates a logger with a requestID for each request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// APIKeyMiddleware rejects requests whose X-API-Key header does not match the
// configured shared key. Comparison is constant-time.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				logger.FromContext(r.Context()).Debug("API key header missing", "path", r.URL.Path)
				utils.SendJSONError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				logger.FromContext(r.Context()).Warn("API key mismatch", "path", r.URL.Path)
				utils.SendJSONError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
