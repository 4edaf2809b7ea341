package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	stockclient "github.com/onlinemarketplace/order-orchestrator/internal/clients/http/stock"
	walletclient "github.com/onlinemarketplace/order-orchestrator/internal/clients/http/wallet"
	orderspostgres "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/persistence/postgres"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
	platformpostgres "github.com/onlinemarketplace/order-orchestrator/internal/platform/postgres"
)

// Replays journaled compensations that exhausted their inline retry budget:
// restocks that never reached the stock service and refunds that never
// reached the wallet service. Meant to run on a schedule.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot reconcile compensations")
	}

	stockService, walletService, err := buildCollaborators()
	if err != nil {
		log.Fatalf("failed to configure collaborators: %v", err)
	}

	store := orderspostgres.NewReconciliationStore(db)
	pending, err := store.Pending(ctx)
	if err != nil {
		log.Fatalf("failed to load pending compensations: %v", err)
	}
	if len(pending) == 0 {
		logger.Info("no pending compensations")
		return
	}

	var replayed, failed int
	for _, comp := range pending {
		if err := replay(ctx, comp, stockService, walletService); err != nil {
			failed++
			logger.Error("compensation replay failed",
				slog.Int64("id", comp.ID),
				slog.Int64("orderId", comp.OrderID),
				slog.String("operation", comp.Operation),
				slog.String("error", err.Error()))
			continue
		}
		if err := store.Resolve(ctx, comp.ID); err != nil {
			failed++
			logger.Error("failed to mark compensation resolved", slog.Int64("id", comp.ID), slog.String("error", err.Error()))
			continue
		}
		replayed++
	}
	logger.Info("reconciliation completed", slog.Int("replayed", replayed), slog.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

func replay(ctx context.Context, comp ordersports.PendingCompensation, stock ordersports.StockService, wallet ordersports.WalletService) error {
	switch comp.Operation {
	case ordersports.CompensationRestock:
		return stock.Increment(ctx, comp.ProductID, comp.Quantity)
	case ordersports.CompensationRefund:
		return wallet.Credit(ctx, comp.UserID, comp.Amount)
	default:
		return fmt.Errorf("unknown compensation operation %q", comp.Operation)
	}
}

func buildCollaborators() (ordersports.StockService, ordersports.WalletService, error) {
	stockURL := strings.TrimSpace(os.Getenv("STOCK_SERVICE_URL"))
	walletURL := strings.TrimSpace(os.Getenv("WALLET_SERVICE_URL"))
	if stockURL == "" || walletURL == "" {
		return nil, nil, fmt.Errorf("STOCK_SERVICE_URL and WALLET_SERVICE_URL must be set")
	}
	httpClient := &http.Client{Timeout: 10 * time.Second}
	stockService, err := stockclient.NewClient(stockURL, httpClient)
	if err != nil {
		return nil, nil, err
	}
	walletService, err := walletclient.NewClient(walletURL, httpClient)
	if err != nil {
		return nil, nil, err
	}
	return stockService, walletService, nil
}
