package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
	"github.com/airbuddy/airbuddy-api/internal/airquality/providers"
	httpapi "github.com/airbuddy/airbuddy-api/internal/api/http"
	"github.com/airbuddy/airbuddy-api/internal/cache"
	"github.com/airbuddy/airbuddy-api/internal/config"
	"github.com/airbuddy/airbuddy-api/internal/logging"
	"github.com/airbuddy/airbuddy-api/internal/scheduler"
)

const visitorIdleTimeout = 3 * time.Minute

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.Upstream.Timeout,
	}

	payloadCache, closeCache, err := newCache(cfg, logr)
	if err != nil {
		logr.Fatalw("failed to initialise cache", "backend", cfg.Cache.Backend, "error", err)
	}
	defer closeCache()

	// Providers with resilience (backoff + circuit breaker).
	providerOpts := func(baseURL string) providers.Options {
		return providers.Options{
			BaseURL:    baseURL,
			Client:     httpClient,
			MaxRetries: cfg.Upstream.MaxRetries,
			Cache:      payloadCache,
			CacheTTL:   cfg.Cache.TTL,
			Logger:     logr,
		}
	}
	waqi := providers.NewWAQIProvider(cfg.WAQI.APIKey, providerOpts(cfg.WAQI.BaseURL))

	geocoders := []airquality.Geocoder{
		providers.NewLocationIQGeocoder(cfg.LocationIQ.APIKey, providerOpts(cfg.LocationIQ.BaseURL)),
	}
	if cfg.GoogleAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GoogleAPIKey, logr))
	}

	// Core service orchestrating providers and transforms.
	service := airquality.NewService(waqi, waqi, providers.NewGeocoderChain(geocoders...),
		airquality.WithLogger(logr),
		airquality.WithBatchConcurrency(cfg.Upstream.BatchConcurrency),
	)

	limiter := httpapi.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// Background jobs: cache warming and rate limiter housekeeping.
	sched := scheduler.New(logr)
	if payloadCache != nil && cfg.WarmerInterval > 0 {
		if err := sched.AddWarmer(service, cfg.Cities, cfg.WarmerInterval); err != nil {
			logr.Fatalw("failed to schedule cache warmer", "error", err)
		}
	}
	if err := sched.AddCleanup("ratelimit-cleanup", time.Minute, func() {
		if n := limiter.Cleanup(visitorIdleTimeout); n > 0 {
			logr.Debugw("removed idle rate limit visitors", "count", n)
		}
	}); err != nil {
		logr.Fatalw("failed to schedule rate limiter cleanup", "error", err)
	}
	sched.Start()
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "airbuddy-api",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          httpapi.ErrorHandler(logr),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())
	app.Use(httpapi.Metrics())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "airbuddy-api",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	app.Use("/api", limiter.Handler())
	httpapi.RegisterRoutes(app, service, httpapi.Options{
		Environment:         cfg.Environment,
		AQIKeyLoaded:        cfg.WAQI.APIKey != "",
		LocationIQKeyLoaded: cfg.LocationIQ.APIKey != "",
		Cities:              cfg.Cities,
	})

	// Start server with graceful shutdown
	go func() {
		logr.Infow("server listening", "addr", cfg.Server.Addr(), "environment", cfg.Environment, "cache", cfg.Cache.Backend)
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			logr.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Errorw("error during shutdown", "error", err)
	}
}

// newCache builds the configured payload cache. A nil cache disables caching.
func newCache(cfg *config.AppConfig, logr *zap.SugaredLogger) (cache.Cache, func(), error) {
	noop := func() {}
	switch cfg.Cache.Backend {
	case "memory":
		return cache.Instrument("memory", cache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.TTL)), noop, nil
	case "redis":
		rc := cache.NewRedisCache(cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, noop, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		return cache.Instrument("redis", rc), func() {
			if err := rc.Close(); err != nil {
				logr.Warnw("failed to close redis", "error", err)
			}
		}, nil
	default:
		return nil, noop, nil
	}
}
