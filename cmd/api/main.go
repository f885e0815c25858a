package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/flashdrop/drop-api/internal/app"
	"github.com/flashdrop/drop-api/internal/clock"
	"github.com/flashdrop/drop-api/internal/config"
	"github.com/flashdrop/drop-api/internal/eventbus"
	"github.com/flashdrop/drop-api/internal/storage/postgres"
	transporthttp "github.com/flashdrop/drop-api/internal/transport/http"
	"github.com/flashdrop/drop-api/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "drop-api").Logger()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	var notifier app.Notifier = app.NopNotifier{}
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to rabbitmq")
		}
		defer publisher.Close()
		notifier = publisher
		logger.Info().Str("exchange", cfg.RabbitMQExchange).Msg("rabbitmq notifier enabled")
	} else {
		logger.Warn().Msg("RABBITMQ_URL not set, notifications disabled")
	}

	clk := clock.NewSystem()
	users := postgres.NewUserRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool)
	purchaseRepo := postgres.NewPurchaseRepository(pool)
	dropRepo := postgres.NewDropRepository(pool)

	reservationSvc := app.NewReservationService(reservationRepo, users, clk,
		app.WithHoldTTL(cfg.HoldTTL),
		app.WithReserveTxTimeout(cfg.TxTimeout),
	)
	purchaseSvc := app.NewPurchaseService(purchaseRepo, users, clk,
		app.WithPurchaseTxTimeout(cfg.TxTimeout),
	)
	stockSvc := app.NewStockService(dropRepo, clk)
	adminSvc := app.NewAdminService(dropRepo, clk)

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := app.NewSweeper(reservationRepo, stockSvc, notifier, clk, logger,
		app.WithSweepInterval(cfg.SweepInterval),
	)
	sweeper.Start(sweeperCtx)
	logger.Info().Dur("interval", cfg.SweepInterval).Msg("expiry sweeper started")

	handler := transporthttp.NewRouter(transporthttp.RouterDeps{
		Reservations: reservationSvc,
		Purchases:    purchaseSvc,
		Stock:        stockSvc,
		Admin:        adminSvc,
		Notifier:     notifier,
		Clock:        clk,
		AdminAPIKey:  cfg.AdminAPIKey,
		CORSOrigins:  parseCSV(cfg.CORSOrigins),
		Logger:       logger,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info().Str("port", cfg.Port).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
