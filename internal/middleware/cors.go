package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// preflightMaxAge is the longest cache age every major browser honours
const preflightMaxAge = 300

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}

	// Readable by browsers on cross-origin responses
	corsExposedHeaders = []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}
)

// CORSMiddleware lets browsers call the product API. Development accepts any origin.
func CORSMiddleware(allowedOrigins []string, isDevelopment bool) func(http.Handler) http.Handler {
	if isDevelopment {
		allowedOrigins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: corsMethods,
		AllowedHeaders: []string{"Accept", "Content-Type", APIKeyHeader},
		ExposedHeaders: corsExposedHeaders,
		MaxAge:         preflightMaxAge,
	})
}

// DefaultMiddlewareStack returns the middleware every route shares, outermost first.
// RealIP is only installed behind a trusted proxy; otherwise forwarding headers
// are ignored and RemoteAddr stays the peer address.
func DefaultMiddlewareStack(trustProxy bool) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{middleware.RequestID}
	if trustProxy {
		stack = append(stack, middleware.RealIP)
	}
	return append(stack, middleware.Compress(5))
}
