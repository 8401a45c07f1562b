package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	catalogmemory "github.com/commercegrid/backoffice/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/commercegrid/backoffice/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/commercegrid/backoffice/internal/domains/catalog/application"
	catalogports "github.com/commercegrid/backoffice/internal/domains/catalog/ports"
	inventorymemory "github.com/commercegrid/backoffice/internal/domains/inventory/adapters/memory"
	inventorypostgres "github.com/commercegrid/backoffice/internal/domains/inventory/adapters/persistence/postgres"
	inventoryapp "github.com/commercegrid/backoffice/internal/domains/inventory/application"
	inventoryports "github.com/commercegrid/backoffice/internal/domains/inventory/ports"
	ordersmemory "github.com/commercegrid/backoffice/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/commercegrid/backoffice/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/commercegrid/backoffice/internal/domains/orders/application"
	ordersports "github.com/commercegrid/backoffice/internal/domains/orders/ports"
	paymentsmemory "github.com/commercegrid/backoffice/internal/domains/payments/adapters/memory"
	paymentspostgres "github.com/commercegrid/backoffice/internal/domains/payments/adapters/persistence/postgres"
	paymentsapp "github.com/commercegrid/backoffice/internal/domains/payments/application"
	paymentsports "github.com/commercegrid/backoffice/internal/domains/payments/ports"
	promotionsmemory "github.com/commercegrid/backoffice/internal/domains/promotions/adapters/memory"
	promotionspostgres "github.com/commercegrid/backoffice/internal/domains/promotions/adapters/persistence/postgres"
	promotionsapp "github.com/commercegrid/backoffice/internal/domains/promotions/application"
	promotionsports "github.com/commercegrid/backoffice/internal/domains/promotions/ports"
	orderactivities "github.com/commercegrid/backoffice/internal/durable/temporal/activities/orders"
	orderworkflows "github.com/commercegrid/backoffice/internal/durable/temporal/workflows/orders"
	"github.com/commercegrid/backoffice/internal/platform/migrations"
	platformobservability "github.com/commercegrid/backoffice/internal/platform/observability"
	platformpostgres "github.com/commercegrid/backoffice/internal/platform/postgres"
)

func main() {
	ctx := context.Background()
	const serviceName = "backoffice-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			logger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	ordersService := buildOrderService(db, logger)
	activities := orderactivities.NewActivities(ordersService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderConfirmationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderConfirmationWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderConfirmationWorkflowName})
	w.RegisterActivityWithOptions(activities.ConfirmOrder, activity.RegisterOptions{Name: orderactivities.ConfirmOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderConfirmationTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrderService(db *gorm.DB, logger *slog.Logger) ordersports.Service {
	var (
		catalogRepo    catalogports.Repository
		inventoryRepo  inventoryports.Repository
		promotionsRepo promotionsports.Repository
		paymentsRepo   paymentsports.Repository
		ordersRepo     ordersports.Repository
	)
	if db == nil {
		catalogRepo = catalogmemory.NewRepository()
		inventoryRepo = inventorymemory.NewRepository()
		promotionsRepo = promotionsmemory.NewRepository()
		paymentsRepo = paymentsmemory.NewRepository()
		ordersRepo = ordersmemory.NewRepository()
	} else {
		catalogRepo = catalogpostgres.NewRepository(db)
		inventoryRepo = inventorypostgres.NewRepository(db)
		promotionsRepo = promotionspostgres.NewRepository(db)
		paymentsRepo = paymentspostgres.NewRepository(db)
		ordersRepo = orderspostgres.NewRepository(db)
	}
	return ordersapp.NewService(
		ordersRepo,
		catalogapp.NewService(catalogRepo),
		inventoryapp.NewService(inventoryRepo),
		promotionsapp.NewService(promotionsRepo),
		paymentsapp.NewService(paymentsRepo, paymentsapp.WithLogger(logger)),
		ordersapp.WithLogger(logger),
	)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
