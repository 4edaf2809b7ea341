package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

var _ ports.ReconciliationStore = (*ReconciliationStore)(nil)

// ReconciliationStore journals pending compensations in PostgreSQL so the
// reconciler can replay them after the API process is gone.
type ReconciliationStore struct {
	db *gorm.DB
}

func NewReconciliationStore(db *gorm.DB) *ReconciliationStore {
	store := &ReconciliationStore{db: db}
	if db != nil {
		_ = db.AutoMigrate(&reconciliationRecord{})
	}
	return store
}

type reconciliationRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   int64     `gorm:"column:order_id;index"`
	Operation string    `gorm:"column:operation;type:varchar(32)"`
	UserID    int64     `gorm:"column:user_id"`
	ProductID int64     `gorm:"column:product_id"`
	Quantity  int32     `gorm:"column:quantity"`
	Amount    int64     `gorm:"column:amount"`
	Attempts  int       `gorm:"column:attempts"`
	Resolved  bool      `gorm:"column:resolved;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (reconciliationRecord) TableName() string { return "order_reconciliations" }

func (s *ReconciliationStore) Enqueue(ctx context.Context, pending ports.PendingCompensation) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := reconciliationRecord{
		OrderID:   pending.OrderID,
		Operation: pending.Operation,
		UserID:    pending.UserID,
		ProductID: pending.ProductID,
		Quantity:  pending.Quantity,
		Amount:    pending.Amount,
		Attempts:  pending.Attempts,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *ReconciliationStore) Pending(ctx context.Context) ([]ports.PendingCompensation, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []reconciliationRecord
	if err := s.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	pending := make([]ports.PendingCompensation, 0, len(records))
	for _, r := range records {
		pending = append(pending, ports.PendingCompensation{
			ID:        r.ID,
			OrderID:   r.OrderID,
			Operation: r.Operation,
			UserID:    r.UserID,
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			Amount:    r.Amount,
			Attempts:  r.Attempts,
			CreatedAt: r.CreatedAt,
		})
	}
	return pending, nil
}

func (s *ReconciliationStore) Resolve(ctx context.Context, id int64) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&reconciliationRecord{}).
		Where("id = ?", id).
		Update("resolved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *ReconciliationStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres reconciliation store not configured")
	}
	return nil
}
