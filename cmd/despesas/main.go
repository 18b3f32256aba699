package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"despesas/internal/amqp"
	"despesas/internal/cli"
	"despesas/internal/config"
	apphttp "despesas/internal/http"
	"despesas/internal/ledger"
	"despesas/internal/log"
	"despesas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig(log.ComponentApp, (*config.Config).Validate)

	ctx := context.Background()
	be := cli.OpenBackend(ctx, logger, cfg)
	st := be.Backend

	hist, closeHistory, err := cli.NewHistory(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize name history", log.FieldError, err, "backend", cfg.HistoryBackend)
		os.Exit(1)
	}

	// Event publishing is optional; without AMQP_URL nothing is exported.
	var events services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		events = amqpClient
		logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	partners := ledger.NewPartnerResolver(st)
	svc := apphttp.Services{
		Records: services.NewRecordService(st, partners, hist, events, services.RecordServiceConfig{
			DueSoonWindowDays: cfg.DueSoonWindowDays,
			SummaryMonths:     cfg.SummaryMonths,
		}),
		Goals:     services.NewGoalService(st, partners),
		Shopping:  services.NewShoppingService(st, partners),
		Profiles:  services.NewProfileService(st, st, partners),
		Dashboard: services.NewDashboardService(st, st, st, partners),
		History:   hist,
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		AuthSecret:         cfg.AuthJWTSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Ready:              st,
	}, svc)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := closeHistory(); err != nil {
			logger.Warn("Failed to close history store", log.FieldError, err)
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Failed to close backend", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting despesas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"history", cfg.HistoryBackend,
		"auth", cfg.AuthEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
