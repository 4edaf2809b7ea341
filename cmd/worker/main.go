package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	stockclient "github.com/onlinemarketplace/order-orchestrator/internal/clients/http/stock"
	walletclient "github.com/onlinemarketplace/order-orchestrator/internal/clients/http/wallet"
	ordersmemory "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/persistence/postgres"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
	orderactivities "github.com/onlinemarketplace/order-orchestrator/internal/durable/temporal/activities/orders"
	orderworkflows "github.com/onlinemarketplace/order-orchestrator/internal/durable/temporal/workflows/orders"
	"github.com/onlinemarketplace/order-orchestrator/internal/platform/migrations"
	platformobservability "github.com/onlinemarketplace/order-orchestrator/internal/platform/observability"
	platformpostgres "github.com/onlinemarketplace/order-orchestrator/internal/platform/postgres"
)

func main() {
	ctx := context.Background()
	const serviceName = "order-orchestrator-worker"
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

	orderRepo, cleanupRepo := buildOrderRepository(ctx, logger)
	defer cleanupRepo()
	stockService, walletService := buildCollaborators(logger)
	activities := orderactivities.NewActivities(orderRepo, stockService, walletService)

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

	w := worker.New(temporalClient, orderworkflows.OrderPlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderPlacementWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderPlacementWorkflowName})
	w.RegisterActivityWithOptions(activities.PriceOrder, activity.RegisterOptions{Name: orderactivities.PriceOrderActivityName})
	w.RegisterActivityWithOptions(activities.ReserveStock, activity.RegisterOptions{Name: orderactivities.ReserveStockActivityName})
	w.RegisterActivityWithOptions(activities.ReleaseStock, activity.RegisterOptions{Name: orderactivities.ReleaseStockActivityName})
	w.RegisterActivityWithOptions(activities.DebitWallet, activity.RegisterOptions{Name: orderactivities.DebitWalletActivityName})
	w.RegisterActivityWithOptions(activities.RefundWallet, activity.RegisterOptions{Name: orderactivities.RefundWalletActivityName})
	w.RegisterActivityWithOptions(activities.PersistOrder, activity.RegisterOptions{Name: orderactivities.PersistOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderPlacementTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrderRepository(ctx context.Context, logger *slog.Logger) (ordersports.Repository, func()) {
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	if db == nil {
		logger.Warn("worker falling back to in-memory order repository")
		return ordersmemory.NewRepository(), cleanup
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("worker failed to apply migrations (falling back to memory)", slog.String("error", err.Error()))
		cleanup()
		return ordersmemory.NewRepository(), func() {}
	}
	logger.Info("worker order repository configured with postgres")
	return orderspostgres.NewRepository(db), cleanup
}

func buildCollaborators(logger *slog.Logger) (ordersports.StockService, ordersports.WalletService) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	var stockService ordersports.StockService = ordersmemory.NewStockService()
	if baseURL := strings.TrimSpace(os.Getenv("STOCK_SERVICE_URL")); baseURL != "" {
		c, err := stockclient.NewClient(baseURL, httpClient)
		if err != nil {
			logger.Warn("invalid STOCK_SERVICE_URL, falling back to in-memory stock service", slog.String("error", err.Error()))
		} else {
			stockService = c
		}
	} else {
		logger.Warn("STOCK_SERVICE_URL not set, falling back to in-memory stock service")
	}

	var walletService ordersports.WalletService = ordersmemory.NewWalletService()
	if baseURL := strings.TrimSpace(os.Getenv("WALLET_SERVICE_URL")); baseURL != "" {
		c, err := walletclient.NewClient(baseURL, httpClient)
		if err != nil {
			logger.Warn("invalid WALLET_SERVICE_URL, falling back to in-memory wallet service", slog.String("error", err.Error()))
		} else {
			walletService = c
		}
	} else {
		logger.Warn("WALLET_SERVICE_URL not set, falling back to in-memory wallet service")
	}
	return stockService, walletService
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
