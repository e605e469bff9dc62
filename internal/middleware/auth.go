package middleware

import (
	"crypto/subtle"
	"net/http"

	"product-api/internal/domain"

	"go.uber.org/zap"
)

// APIKeyHeader carries the shared secret on mutating requests
const APIKeyHeader = "X-API-Key"

var (
	ErrMissingAPIKey = domain.Unauthorized("API key is required")
	ErrInvalidAPIKey = domain.Unauthorized("invalid API key")
)

// CheckAPIKey compares a request-supplied key with the configured secret
func CheckAPIKey(supplied, expected string) error {
	if supplied == "" {
		return ErrMissingAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}

// APIKeyMiddleware rejects requests that do not carry the static API key
func APIKeyMiddleware(apiKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := CheckAPIKey(r.Header.Get(APIKeyHeader), apiKey); err != nil {
				logger.Debug("API key check failed",
					zap.Error(err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				RespondWithAppError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
