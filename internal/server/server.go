package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	_ "product-api/docs"
	"product-api/internal/config"
	custommiddleware "product-api/internal/middleware"
	"product-api/internal/repository"
	"product-api/internal/service"
	"product-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

const (
	welcomeMessage = "Welcome to the Product API! Go to /api/products to see all products."

	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 3 * time.Minute
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	redis       *redis.Client
	stopCleanup chan struct{}
	closeOnce   sync.Once
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	server := &Server{
		config:      cfg,
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(requestMiddleware(cfg, logger)...)

	router.NotFound(custommiddleware.NotFoundHandler)
	router.MethodNotAllowed(custommiddleware.MethodNotAllowedHandler)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(welcomeMessage))
	})

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Initialize repositories
	productRepo := repository.NewProductRepository()

	// Initialize services
	productService := service.NewProductService(productRepo, logger)

	if cfg.Seed {
		seeded, err := service.Seed(context.Background(), productService, service.SampleProducts())
		if err != nil {
			return nil, err
		}
		logger.Info("Seeded sample products", zap.Int("count", len(seeded)))
	}

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.APIKeyMiddleware(cfg.Auth.APIKey, logger)

	// Register routes
	router.Group(func(r chi.Router) {
		if limit := server.rateLimitMiddleware(); limit != nil {
			r.Use(limit)
		}
		productHandler.RegisterRoutes(r, authMiddleware)
	})

	server.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server, nil
}

// requestMiddleware returns the router-wide middleware, outermost first.
// Recovery sits inside logging so a recovered panic is logged as a 500.
func requestMiddleware(cfg *config.Config, logger *zap.Logger) []func(http.Handler) http.Handler {
	return append(custommiddleware.DefaultMiddlewareStack(cfg.Server.TrustProxy),
		custommiddleware.LoggingMiddleware(logger),
		custommiddleware.ErrorHandlingMiddleware(logger),
		custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()),
	)
}

// rateLimitMiddleware picks the Redis limiter when a host is configured and
// the in-process limiter otherwise. It returns nil when rate limiting is off.
func (s *Server) rateLimitMiddleware() func(http.Handler) http.Handler {
	if !s.config.RateLimit.Enabled {
		return nil
	}

	limitCfg := custommiddleware.RateLimitConfig{
		RequestsPerWindow: s.config.RateLimit.Requests,
		Window:            s.config.RateLimit.Window,
		KeyPrefix:         "ratelimit:products",
	}

	if s.config.Redis.Enabled() {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     s.config.Redis.Addr(),
			Password: s.config.Redis.Password,
			DB:       s.config.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			// The middleware lets requests through while Redis is unreachable
			s.logger.Warn("Redis unreachable, rate limiting degraded", zap.Error(err))
		}

		s.logger.Info("Using Redis rate limiter", zap.String("addr", s.config.Redis.Addr()))
		return custommiddleware.RateLimitMiddleware(s.redis, limitCfg, s.logger)
	}

	limiter := custommiddleware.NewLocalRateLimiter(limitCfg)
	go limiter.StartCleanupLoop(limiterCleanupInterval, limiterMaxIdle, s.stopCleanup)

	s.logger.Info("Using in-process rate limiter")
	return custommiddleware.LocalRateLimitMiddleware(limiter, s.logger)
}

func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("Closing server resources")

		close(s.stopCleanup)

		if s.redis != nil {
			if err = s.redis.Close(); err != nil {
				s.logger.Error("Failed to close Redis connection", zap.Error(err))
			}
		}

		s.logger.Sync()
	})
	return err
}
