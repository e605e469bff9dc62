package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func sendFrom(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestProperty_RedisRateLimitBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests beyond the window budget get 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("Failed to start miniredis: %v", err)
				return false
			}
			defer mr.Close()

			redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer redisClient.Close()

			config := RateLimitConfig{
				RequestsPerWindow: requestsPerWindow,
				Window:            time.Minute,
				KeyPrefix:         "test_rate_limit",
			}
			handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(okHandler())

			successCount, blockedCount := 0, 0
			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				w := sendFrom(handler, "192.168.1.100:5000")
				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
					if w.Header().Get("Retry-After") == "" {
						return false
					}
				}
			}

			return successCount == requestsPerWindow && blockedCount == excessRequests
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitMiddleware_HeadersAndWindowReset(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	config := RateLimitConfig{RequestsPerWindow: 2, Window: 10 * time.Second, KeyPrefix: "rl"}
	handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(okHandler())

	w := sendFrom(handler, "10.0.0.1:1111")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	// A different port on the same host shares the bucket
	w = sendFrom(handler, "10.0.0.1:2222")
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = sendFrom(handler, "10.0.0.1:3333")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.Error.Status)
	assert.Equal(t, "rate limit exceeded", body.Error.Message)

	assert.True(t, mr.Exists("rl:10.0.0.1"))
	mr.FastForward(11 * time.Second)

	w = sendFrom(handler, "10.0.0.1:1111")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware_AllowsRequestsWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer redisClient.Close()
	mr.Close()

	config := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, KeyPrefix: "rl"}
	handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, sendFrom(handler, "10.0.0.2:1").Code)
	}
}

func TestProperty_LocalRateLimitBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("each client gets its own burst of RequestsPerWindow", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			limiter := NewLocalRateLimiter(RateLimitConfig{
				RequestsPerWindow: requestsPerWindow,
				Window:            time.Hour,
			})
			handler := LocalRateLimitMiddleware(limiter, zap.NewNop())(okHandler())

			for _, client := range []string{"10.1.0.1:80", "10.1.0.2:80"} {
				successCount, blockedCount := 0, 0
				for i := 0; i < requestsPerWindow+excessRequests; i++ {
					switch sendFrom(handler, client).Code {
					case http.StatusOK:
						successCount++
					case http.StatusTooManyRequests:
						blockedCount++
					}
				}
				if successCount != requestsPerWindow || blockedCount != excessRequests {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNewLocalRateLimiter_GuardsInvalidConfig(t *testing.T) {
	limiter := NewLocalRateLimiter(RateLimitConfig{})

	assert.Equal(t, 1, limiter.config.RequestsPerWindow)
	assert.Equal(t, time.Minute, limiter.config.Window)
}

func TestLocalRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLocalRateLimiter(RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute})
	limiter.now = func() time.Time { return now }

	limiter.limiterFor("stale")
	now = now.Add(5 * time.Minute)
	limiter.limiterFor("fresh")

	assert.Equal(t, 1, limiter.Cleanup(3*time.Minute))
	assert.Len(t, limiter.visitors, 1)
	assert.Contains(t, limiter.visitors, "fresh")
}

func TestLocalRateLimiter_CleanupLoopStops(t *testing.T) {
	limiter := NewLocalRateLimiter(RateLimitConfig{RequestsPerWindow: 1, Window: time.Second})
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		limiter.StartCleanupLoop(time.Millisecond, time.Hour, stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestClientIdentifier(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "203.0.113.7:4321"
	assert.Equal(t, "203.0.113.7", clientIdentifier(req))

	req.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientIdentifier(req))
}
