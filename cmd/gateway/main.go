package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kelseyhightower/envconfig"

	"paygateway/internal/common/database"
	"paygateway/internal/common/middleware"
	natsclient "paygateway/internal/common/nats"
	"paygateway/internal/payment"
	"paygateway/internal/payment/api"
	"paygateway/internal/payment/bank"
	"paygateway/internal/payment/domain"
	"paygateway/internal/payment/idempotency"
	"paygateway/internal/payment/store"
)

// Config holds service configuration
type Config struct {
	Port        int    `envconfig:"GATEWAY_PORT" default:"8090"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	StoreBackend   string   `envconfig:"STORE_BACKEND" default:"memory"`
	EventsEnabled  bool     `envconfig:"EVENTS_ENABLED" default:"false"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	Bank        bank.Config
	Idempotency idempotency.Config
	Database    database.Config
	NATS        natsclient.Config
	RateLimit   middleware.RateLimitConfig
}

// normalize lower-cases backend and transport selectors so every later
// comparison sees the same value.
func (c *Config) normalize() {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.Idempotency.Backend = strings.ToLower(strings.TrimSpace(c.Idempotency.Backend))
	c.Bank.Transport = strings.ToLower(strings.TrimSpace(c.Bank.Transport))
}

func (c Config) needsDatabase() bool {
	return c.StoreBackend == store.BackendPostgres || c.Idempotency.Backend == idempotency.BackendPostgres
}

func (c Config) needsNATS() bool {
	return c.EventsEnabled || c.Bank.Transport == bank.TransportNATS
}

// healthCheck is a named dependency probe for /health
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

func main() {
	// Load configuration
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to process config: %v\n", err)
		os.Exit(1)
	}
	cfg.normalize()

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat).With("environment", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	var checks []healthCheck

	var db *database.DB
	if cfg.needsDatabase() {
		if cfg.Database.URL == "" {
			logger.Error("DATABASE_URL is required for the postgres backends")
			os.Exit(1)
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(cfg.Database.URL, logger); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
		}
		var err error
		db, err = database.New(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		checks = append(checks, healthCheck{name: "postgres", check: db.HealthCheck})
	}

	var nc *natsclient.Client
	if cfg.needsNATS() {
		var err error
		nc, err = natsclient.New(ctx, cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		checks = append(checks, healthCheck{name: "nats", check: func(context.Context) error { return nc.HealthCheck() }})
	}

	guard, guardCheck, err := buildGuard(ctx, cfg.Idempotency, db)
	if err != nil {
		logger.Error("failed to create idempotency guard", "error", err)
		os.Exit(1)
	}
	if guardCheck != nil {
		checks = append(checks, *guardCheck)
	}

	paymentStore, err := buildStore(cfg.StoreBackend, db)
	if err != nil {
		logger.Error("failed to create payment store", "error", err)
		os.Exit(1)
	}

	gateway, err := buildGateway(cfg.Bank, nc, logger)
	if err != nil {
		logger.Error("failed to create bank gateway", "error", err)
		os.Exit(1)
	}

	// Create services
	paymentService := payment.NewService(
		payment.NewValidator(domain.SystemClock{}),
		guard,
		gateway,
		paymentStore,
		logger,
	)
	paymentService.SetBankTimeout(cfg.Bank.Timeout)

	if cfg.EventsEnabled {
		if _, err := nc.EnsureStream(ctx, natsclient.PaymentStreamConfig()); err != nil {
			logger.Error("failed to ensure payment stream", "error", err)
			os.Exit(1)
		}
		paymentService.SetPublisher(natsclient.NewPublisher(nc, logger))
	}

	rateLimit, err := middleware.RateLimiter(cfg.RateLimit, logger)
	if err != nil {
		logger.Error("failed to create rate limiter", "error", err)
		os.Exit(1)
	}

	paymentHandler := api.NewHandler(paymentService, logger)
	r := newRouter(logger, cfg.AllowedOrigins, rateLimit, paymentHandler, checks)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Bank.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting payment gateway",
			"port", cfg.Port,
			"bank_transport", cfg.Bank.Transport,
			"idempotency_backend", cfg.Idempotency.Backend,
			"store_backend", cfg.StoreBackend,
			"events_enabled", cfg.EventsEnabled,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	// In-flight submissions hold idempotency locks; give them the bank
	// timeout to finish before the listener is torn down.
	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Bank.Timeout+20*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func newRouter(logger *slog.Logger, origins []string, rateLimit func(http.Handler) http.Handler, payments *api.Handler, checks []healthCheck) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Logger(logger))
	if len(origins) > 0 {
		r.Use(middleware.CORS(origins))
	}
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		for _, hc := range checks {
			if err := hc.check(ctx); err != nil {
				logger.Warn("health check failed", "dependency", hc.name, "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, `{"status":"unhealthy","dependency":%q}`, hc.name)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	r.Method(http.MethodGet, "/metrics", middleware.Metrics())

	routes := middleware.InstrumentHandler("payments", rateLimit(payments.Routes()))
	r.Mount("/payments", routes)
	r.Mount("/api/payments", routes)

	return r
}

func buildGuard(ctx context.Context, cfg idempotency.Config, db *database.DB) (idempotency.Guard, *healthCheck, error) {
	switch cfg.Backend {
	case idempotency.BackendMemory:
		return idempotency.NewMemoryGuard(cfg.LockTTL, cfg.RecordTTL), nil, nil
	case idempotency.BackendRedis:
		rdb, err := idempotency.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		check := &healthCheck{name: "redis", check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }}
		return idempotency.NewRedisGuard(rdb, cfg.LockTTL, cfg.RecordTTL), check, nil
	case idempotency.BackendPostgres:
		if db == nil {
			return nil, nil, fmt.Errorf("idempotency backend %q requires a database", cfg.Backend)
		}
		return idempotency.NewPostgresGuard(db, cfg.LockTTL, cfg.RecordTTL), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}

func buildStore(backend string, db *database.DB) (store.Store, error) {
	switch backend {
	case store.BackendMemory:
		return store.NewMemoryStore(), nil
	case store.BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("store backend %q requires a database", backend)
		}
		return store.NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func buildGateway(cfg bank.Config, nc *natsclient.Client, logger *slog.Logger) (bank.Gateway, error) {
	switch cfg.Transport {
	case bank.TransportHTTP:
		return bank.NewHTTPGateway(cfg.URL, &http.Client{}, logger), nil
	case bank.TransportNATS:
		if nc == nil {
			return nil, fmt.Errorf("bank transport %q requires a NATS connection", cfg.Transport)
		}
		return bank.NewNATSGateway(nc.Conn(), cfg.NATSSubject, cfg.MerchantID, logger), nil
	default:
		return nil, fmt.Errorf("unknown bank transport %q", cfg.Transport)
	}
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
