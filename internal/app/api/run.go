package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	catalogmemory "github.com/commercegrid/backoffice/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/commercegrid/backoffice/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/commercegrid/backoffice/internal/domains/catalog/application"
	catalogports "github.com/commercegrid/backoffice/internal/domains/catalog/ports"
	inventorymemory "github.com/commercegrid/backoffice/internal/domains/inventory/adapters/memory"
	inventoryobs "github.com/commercegrid/backoffice/internal/domains/inventory/adapters/observability"
	inventorypostgres "github.com/commercegrid/backoffice/internal/domains/inventory/adapters/persistence/postgres"
	inventoryapp "github.com/commercegrid/backoffice/internal/domains/inventory/application"
	inventoryports "github.com/commercegrid/backoffice/internal/domains/inventory/ports"
	ordersmemory "github.com/commercegrid/backoffice/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/commercegrid/backoffice/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/commercegrid/backoffice/internal/domains/orders/adapters/workflows"
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
	"github.com/commercegrid/backoffice/internal/platform/migrations"
	platformobservability "github.com/commercegrid/backoffice/internal/platform/observability"
	platformpostgres "github.com/commercegrid/backoffice/internal/platform/postgres"
	transporthttp "github.com/commercegrid/backoffice/internal/transport/http"
)

// Run boots the back-office HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "backoffice-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
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
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	repos := buildRepositories(db)

	catalogService := catalogapp.NewService(repos.catalog)
	coreInventoryService := inventoryapp.NewService(repos.inventory)
	inventoryService := inventoryobs.New(
		coreInventoryService,
		inventoryobs.WithLogger(logger),
		inventoryobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		inventoryobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)
	promotionsService := promotionsapp.NewService(repos.promotions)
	paymentsService := paymentsapp.NewService(repos.payments, paymentsapp.WithLogger(logger))
	ordersService := ordersapp.NewService(
		repos.orders,
		catalogService,
		inventoryService,
		promotionsService,
		paymentsService,
		ordersapp.WithLogger(logger),
	)

	var confirmations ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(ordersService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running confirmation inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		confirmations = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	router := transporthttp.NewRouter(transporthttp.Services{
		Catalog:       catalogService,
		Inventory:     inventoryService,
		Promotions:    promotionsService,
		Payments:      paymentsService,
		Orders:        ordersService,
		Confirmations: confirmations,
	})
	router.Use(otelgin.Middleware(serviceName))

	addr := ":" + cfg.Port
	logger.Info("back-office API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("back-office API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

type repositories struct {
	catalog    catalogports.Repository
	inventory  inventoryports.Repository
	promotions promotionsports.Repository
	payments   paymentsports.Repository
	orders     ordersports.Repository
}

func buildRepositories(db *gorm.DB) repositories {
	if db == nil {
		return repositories{
			catalog:    catalogmemory.NewRepository(),
			inventory:  inventorymemory.NewRepository(),
			promotions: promotionsmemory.NewRepository(),
			payments:   paymentsmemory.NewRepository(),
			orders:     ordersmemory.NewRepository(),
		}
	}
	return repositories{
		catalog:    catalogpostgres.NewRepository(db),
		inventory:  inventorypostgres.NewRepository(db),
		promotions: promotionspostgres.NewRepository(db),
		payments:   paymentspostgres.NewRepository(db),
		orders:     orderspostgres.NewRepository(db),
	}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
