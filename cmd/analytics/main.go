package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-marketplace-orders/internal/analytics"
	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
	"github.com/ariefcatur/go-marketplace-orders/internal/config"
	"github.com/ariefcatur/go-marketplace-orders/internal/dashboard"
	kafkax "github.com/ariefcatur/go-marketplace-orders/internal/kafka"
	"github.com/ariefcatur/go-marketplace-orders/internal/logging"
	"github.com/ariefcatur/go-marketplace-orders/internal/orders"
	"github.com/ariefcatur/go-marketplace-orders/internal/postgres"
	"github.com/ariefcatur/go-marketplace-orders/internal/projector"
	"github.com/ariefcatur/go-marketplace-orders/internal/redisx"
	"github.com/ariefcatur/go-marketplace-orders/internal/telemetry"
	"github.com/ariefcatur/go-marketplace-orders/internal/urgentsales"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("analytics consumer exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service := cfg.ServiceName + "-analytics"
	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, service, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	p := &projector.Projector{
		Dedup:     &redisx.Dedup{RDB: rdb, Service: "analytics"},
		Snapshots: analytics.NewSnapshotter(&analytics.SnapshotRepo{DB: db}, logger),
		Dashboard: &dashboard.Composer{
			Products:    &catalog.Repo{DB: db},
			Revenue:     &analytics.Repo{DB: db},
			UrgentSales: &urgentsales.Repo{DB: db},
			Logger:      logger,
			Cache:       &redisx.JSONCache{RDB: rdb},
		},
		Logger: logger,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AnalyticsGroup, orders.TopicOrderEvents, cfg.AnalyticsWorkers, logger)
	logger.Info("analytics consumer started", "group", cfg.AnalyticsGroup,
		"topic", orders.TopicOrderEvents, "workers", cfg.AnalyticsWorkers)

	// Start returns once ctx is cancelled and in-flight messages are done.
	if err := cons.Start(ctx, p.Handle); err != nil {
		return err
	}
	logger.Info("analytics consumer stopped")
	return nil
}
