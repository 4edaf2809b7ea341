package ports

import (
	"context"
	"time"
)

// Compensation operations journaled when a rollback could not be applied.
const (
	CompensationRestock = "restock"
	CompensationRefund  = "refund"
)

// PendingCompensation records a reversing action the orchestrator failed to
// apply within its retry budget. The reconciler replays these until the
// collaborator accepts them, so an inconsistency is detectable and bounded
// rather than silent.
type PendingCompensation struct {
	ID        int64
	OrderID   int64
	Operation string
	UserID    int64
	ProductID int64
	Quantity  int32
	Amount    int64
	Attempts  int
	CreatedAt time.Time
}

// ReconciliationStore persists pending compensations for operator-driven or
// scheduled remediation.
type ReconciliationStore interface {
	Enqueue(ctx context.Context, pending PendingCompensation) error
	Pending(ctx context.Context) ([]PendingCompensation, error)
	Resolve(ctx context.Context, id int64) error
}
