package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	natsclient "paygateway/internal/common/nats"
	"paygateway/internal/payment/bank"
)

// Config holds simulator configuration
type Config struct {
	Port        int    `envconfig:"SIMULATOR_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	NATSEnabled bool   `envconfig:"SIMULATOR_NATS_ENABLED" default:"false"`
	NATSSubject string `envconfig:"BANK_NATS_SUBJECT" default:"acquiring.authorize"`

	NATS natsclient.Config
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to process config: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sim := bank.NewSimulator(logger)

	if cfg.NATSEnabled {
		cfg.NATS.Name = "bank-simulator"
		nc, err := natsclient.New(ctx, cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()

		if _, err := sim.ServeNATS(nc.Conn(), cfg.NATSSubject); err != nil {
			logger.Error("failed to subscribe", "subject", cfg.NATSSubject, "error", err)
			os.Exit(1)
		}
		logger.Info("serving authorizations over NATS", "subject", cfg.NATSSubject)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      sim.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting bank simulator", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("simulator stopped")
}
