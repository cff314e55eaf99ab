package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ariefcatur/go-marketplace-orders/internal/analytics"
	"github.com/ariefcatur/go-marketplace-orders/internal/auth"
	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
	"github.com/ariefcatur/go-marketplace-orders/internal/config"
	"github.com/ariefcatur/go-marketplace-orders/internal/dashboard"
	"github.com/ariefcatur/go-marketplace-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-marketplace-orders/internal/kafka"
	"github.com/ariefcatur/go-marketplace-orders/internal/logging"
	"github.com/ariefcatur/go-marketplace-orders/internal/orders"
	"github.com/ariefcatur/go-marketplace-orders/internal/postgres"
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
		logger.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	if cfg.RunMigrations {
		if err := postgres.MigrateUp(cfg.PostgresDSN); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024, logger)
	prod.Start()

	orderSvc := orders.NewService(&orders.Repo{DB: db}, prod, logger, cfg.ServiceName).
		WithIdempotency(&redisx.OrderIndex{RDB: rdb})
	products := &catalog.Repo{DB: db}
	urgent := &urgentsales.Repo{DB: db}
	sales := &analytics.Repo{DB: db}

	composer := &dashboard.Composer{
		Products:          products,
		Revenue:           sales,
		UrgentSales:       urgent,
		Logger:            logger,
		LowStockThreshold: cfg.LowStockThreshold,
		Cache:             &redisx.JSONCache{RDB: rdb},
		CacheTTL:          cfg.DashboardCacheTTL,
	}

	router := httpx.NewRouter(httpx.Deps{
		Verifier:          auth.NewVerifier(cfg.JWTSecret),
		Orders:            orderSvc,
		Products:          products,
		UrgentSales:       urgent,
		Reports:           analytics.NewAggregator(sales, logger, cfg.DemoFallback),
		Dashboard:         composer,
		Snapshots:         analytics.NewSnapshotter(&analytics.SnapshotRepo{DB: db}, logger),
		Logger:            logger,
		LowStockThreshold: cfg.LowStockThreshold,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		prod.Close()
		prod.WaitClosed()
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	prod.Close()      // no more handlers can publish
	prod.WaitClosed() // flush queued events
	return nil
}
