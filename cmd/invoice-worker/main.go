package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ateliermora/storefront-backend/internal/invoices"
	"github.com/ateliermora/storefront-backend/internal/orders"
	"github.com/ateliermora/storefront-backend/pkg/config"
	"github.com/ateliermora/storefront-backend/pkg/db"
	"github.com/ateliermora/storefront-backend/pkg/logger"
	"github.com/ateliermora/storefront-backend/pkg/metrics"
	"github.com/ateliermora/storefront-backend/pkg/migrate"
	"github.com/ateliermora/storefront-backend/pkg/redis"
	"github.com/ateliermora/storefront-backend/pkg/storage"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "invoice-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "invoice-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	store, err := storage.New(context.Background(), cfg.Storage, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap invoice storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(context.Background(), "error closing invoice storage", err)
		}
	}()

	registry := prometheus.NewRegistry()
	invoiceMetrics := metrics.NewInvoiceMetrics(registry)

	invoicesRepo := invoices.NewRepository(dbClient.DB())
	generator, err := invoices.NewGenerator(
		invoicesRepo,
		orders.NewRepository(dbClient.DB()),
		dbClient,
		store,
		invoices.NewPDFRenderer(cfg.Invoice.SellerName),
		redisClient,
		invoiceMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice generator", err)
		os.Exit(1)
	}

	worker, err := invoices.NewWorker(invoices.WorkerParams{
		Repository:  invoicesRepo,
		Generator:   generator,
		Logger:      logg,
		BatchSize:   cfg.Invoice.JobBatchSize,
		PollMS:      cfg.Invoice.JobPollMS,
		MaxAttempts: cfg.Invoice.JobMaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"batchSize":   cfg.Invoice.JobBatchSize,
		"maxAttempts": cfg.Invoice.JobMaxAttempts,
	})

	metricsServer := serveMetrics(ctx, cfg.Invoice.MetricsPort, registry, logg)
	defer func() {
		if err := metricsServer.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error shutting down metrics server", err)
		}
	}()

	logg.Info(ctx, "starting invoice worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "invoice worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "invoice worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, port string, registry *prometheus.Registry, logg *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	return server
}
