// Package main is the entrypoint for the Credigate API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/credigate/credigate/internal/cache"
	"github.com/credigate/credigate/internal/config"
	"github.com/credigate/credigate/internal/handler"
	"github.com/credigate/credigate/internal/ledger"
	"github.com/credigate/credigate/internal/metrics"
	"github.com/credigate/credigate/internal/middleware"
	"github.com/credigate/credigate/internal/repository"
	"github.com/credigate/credigate/internal/server"
)

func main() {
	ctx := context.Background()

	// Load .env in development; ignore absence in production
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize the ledger core
	recorder := metrics.NewPrometheus(prometheus.DefaultRegisterer)
	registry := ledger.NewRegistry(repo, cacheClient, cfg.InitialCredits, logger, recorder)
	led := ledger.NewLedger(repo, cacheClient, cfg.RechargeUnit, logger, recorder)
	gateway := ledger.NewGateway(registry, led, logger, recorder, cfg.StoreRetries, cfg.StoreRetryBackoff)
	gateway.Register(ledger.NewAddOperation(1))

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	signInHandler := handler.NewSignInHandler(logger, registry)
	meterHandler := handler.NewMeterHandler(logger, gateway)
	rechargeHandler := handler.NewRechargeHandler(logger, led, recorder)
	usageHandler := handler.NewUsageHandler(logger, registry, led)
	accountHandler := handler.NewAccountHandler(logger, registry)

	// Setup router
	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		signIn:   signInHandler,
		meter:    meterHandler,
		recharge: rechargeHandler,
		usage:    usageHandler,
		account:  accountHandler,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"initial_credits", cfg.InitialCredits,
		"recharge_unit", cfg.RechargeUnit,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps gathers everything the router needs.
type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	signIn   *handler.SignInHandler
	meter    *handler.MeterHandler
	recharge *handler.RechargeHandler
	usage    *handler.UsageHandler
	account  *handler.AccountHandler
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: d.cfg.IsDevelopment(),
	}))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Root info endpoint
	r.Get("/", d.base.Hello)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:        d.logger,
		Cache:         d.cache,
		APIEnabled:    d.cfg.RateLimitEnabled,
		PerMinute:     d.cfg.RateLimitPerMinute,
		Burst:         d.cfg.RateLimitBurst,
		SignInEnabled: d.cfg.RateLimitEnabled,
		SignInRPS:     d.cfg.SignInRPS,
		SignInBurst:   d.cfg.SignInBurst,
	}

	// Sign-in and recharge carry the key (or none) in the body, so they are
	// rate limited per IP rather than per key.
	r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/signin", d.signIn.SignIn)
	r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/recharge", d.recharge.Recharge)

	// Metered and account routes require an API key
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.logger))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))

		r.Get("/add", d.meter.Add)
		r.Get("/usage", d.usage.Usage)
		r.Get("/account", d.account.Account)
	})

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
