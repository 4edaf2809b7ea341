package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	stockclient "github.com/onlinemarketplace/order-orchestrator/internal/clients/http/stock"
	walletclient "github.com/onlinemarketplace/order-orchestrator/internal/clients/http/wallet"
	ordersmemory "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/memory"
	ordersobs "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/application"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
	"github.com/onlinemarketplace/order-orchestrator/internal/platform/migrations"
	platformobservability "github.com/onlinemarketplace/order-orchestrator/internal/platform/observability"
	platformpostgres "github.com/onlinemarketplace/order-orchestrator/internal/platform/postgres"
	"github.com/onlinemarketplace/order-orchestrator/internal/server"
)

// Run boots the order orchestration HTTP API with observability, persistence,
// collaborator clients, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "order-orchestrator-api"
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
	cfg := LoadConfig()

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()

	var orderRepo ordersports.Repository
	var reconciliations ordersports.ReconciliationStore
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		orderRepo = orderspostgres.NewRepository(db)
		reconciliations = orderspostgres.NewReconciliationStore(db)
		logger.Info("order repository configured with postgres")
	} else {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory order repository")
		orderRepo = ordersmemory.NewRepository()
		reconciliations = ordersmemory.NewReconciliationStore()
	}

	stockService, walletService, err := buildCollaborators(cfg, logger)
	if err != nil {
		return err
	}

	coreService := ordersapp.NewService(
		orderRepo,
		stockService,
		walletService,
		ordersapp.WithLogger(logger),
		ordersapp.WithReconciliationStore(reconciliations),
	)
	orderService := ordersobs.New(
		coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	var orderWorkflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(orderService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running inline order placement", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orderWorkflows = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := server.ApiHandleFunctions{
		OrderAPI: server.NewOrderAPI(orderService, orderWorkflows),
	}
	router := server.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("order API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("order API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// buildCollaborators dials the stock and wallet services when their base URLs
// are configured, falling back to in-memory stand-ins for local development.
func buildCollaborators(cfg Config, logger *slog.Logger) (ordersports.StockService, ordersports.WalletService, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	var stockService ordersports.StockService
	if cfg.StockServiceURL != "" {
		c, err := stockclient.NewClient(cfg.StockServiceURL, httpClient)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid STOCK_SERVICE_URL: %w", err)
		}
		stockService = c
		logger.Info("stock service configured", slog.String("baseUrl", cfg.StockServiceURL))
	} else {
		logger.Warn("STOCK_SERVICE_URL not set, falling back to in-memory stock service")
		stockService = ordersmemory.NewStockService()
	}

	var walletService ordersports.WalletService
	if cfg.WalletServiceURL != "" {
		c, err := walletclient.NewClient(cfg.WalletServiceURL, httpClient)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid WALLET_SERVICE_URL: %w", err)
		}
		walletService = c
		logger.Info("wallet service configured", slog.String("baseUrl", cfg.WalletServiceURL))
	} else {
		logger.Warn("WALLET_SERVICE_URL not set, falling back to in-memory wallet service")
		walletService = ordersmemory.NewWalletService()
	}
	return stockService, walletService, nil
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
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
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
