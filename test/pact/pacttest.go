//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "order-orchestrator-api"
	ConsumerName = "storefront-web"

	StateOrdersBaseline = "orders baseline"
	StateOrderExists    = "order with id 1 exists"
	StateOrderMissing   = "no order with id 999"
	StateOrderPlaced    = "order with id 2 is placed"
	StateUserHasOrders  = "orders exist for user 7"
)

const (
	ExistingOrderID    int64 = 1
	CancellableOrderID int64 = 2
	MissingOrderID     int64 = 999

	OrderUserID int64 = 7

	FirstProductID  int64 = 10
	SecondProductID int64 = 20
	FirstUnitPrice  int64 = 100
	SecondUnitPrice int64 = 60

	// 2 x 100 + 1 x 60
	ExampleTotalCost int64 = 260
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleOrderRequest provides stable request data for pact interactions.
func ExampleOrderRequest() map[string]any {
	return map[string]any{
		"user_id": OrderUserID,
		"items": []map[string]any{
			{"product_id": FirstProductID, "quantity": 2},
			{"product_id": SecondProductID, "quantity": 1},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
