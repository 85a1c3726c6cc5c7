package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/julianparmann/seatjumper-sub002/internal/app"
	"github.com/julianparmann/seatjumper-sub002/internal/cache"
	"github.com/julianparmann/seatjumper-sub002/internal/clock"
	"github.com/julianparmann/seatjumper-sub002/internal/config"
	"github.com/julianparmann/seatjumper-sub002/internal/events"
	"github.com/julianparmann/seatjumper-sub002/internal/rng"
	"github.com/julianparmann/seatjumper-sub002/internal/storage/postgres"
	transporthttp "github.com/julianparmann/seatjumper-sub002/internal/transport/http"
	"github.com/julianparmann/seatjumper-sub002/internal/worker"
	"github.com/julianparmann/seatjumper-sub002/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		return err
	}

	clk := clock.NewSystem()
	src := rng.NewSystem()

	previews := cache.New[app.PreviewKey, decimal.Decimal](clk, cfg.PreviewCacheTTL)
	previews.StartJanitor(cfg.PreviewCacheTTL)
	defer previews.Stop()

	poolRepo := postgres.NewPoolRepository(pool)
	poolSvc := app.NewPoolService(
		poolRepo,
		app.NewWeightedSelector(src),
		app.NewPricingCalculator(cfg.CurveExponent),
		clk,
		logger,
		app.WithCurveExponent(cfg.CurveExponent),
		app.WithDefaultMargin(cfg.DefaultMarginPct),
		app.WithPreviewCache(previews),
	)

	replenisher := worker.NewReplenisher(poolSvc, logger, cfg.ReplenishQueueSize)
	replenisher.Start()
	defer replenisher.Stop()

	claimOpts := []app.ClaimServiceOption{
		app.WithReplenisher(replenisher),
		app.WithVIPWinProbability(cfg.VIPWinProbability),
	}
	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer func() { _ = publisher.Close() }()
		claimOpts = append(claimOpts, app.WithClaimPublisher(publisher))
		logger.Info("claim events enabled", "exchange", cfg.AMQPExchange)
	}

	claimRepo := postgres.NewClaimRepository(pool)
	claimSvc := app.NewClaimService(claimRepo, clk, src, logger, claimOpts...)

	supplySvc := app.NewSupplyService(poolSvc, logger)

	targets, err := config.ParseSupplyTargets(cfg.MonitorTargets, cfg.PoolFloor)
	if err != nil {
		return err
	}
	var monitor *app.SupplyMonitor
	if len(targets) > 0 {
		monitor = app.NewSupplyMonitor(supplySvc, targets, cfg.MonitorInterval, logger)
		monitor.Start()
		defer monitor.Stop()
		logger.Info("supply monitor started", "targets", len(targets), "interval", cfg.MonitorInterval)
	}

	handler := transporthttp.NewRouter(transporthttp.Services{
		Pools:   poolSvc,
		Claims:  claimSvc,
		Supply:  supplySvc,
		Regen:   poolSvc,
		Stale:   poolSvc,
		Pricing: poolSvc,
		VIP:     poolSvc,
	}, cfg.CORSOrigins, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", "port", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
