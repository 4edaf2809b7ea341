package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the orders bounded context. Intended to replace
// adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&reconciliationRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID         int64         `gorm:"primaryKey;autoIncrement;column:id"`
	UserID     int64         `gorm:"column:user_id;index"`
	ProductIDs pq.Int64Array `gorm:"column:product_ids;type:bigint[]"`
	Quantities pq.Int64Array `gorm:"column:quantities;type:bigint[]"`
	Status     string        `gorm:"column:status;type:varchar(32);index"`
	TotalCost  int64         `gorm:"column:total_cost"`
	CreatedAt  time.Time     `gorm:"column:created_at;index"`
	UpdatedAt  time.Time     `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Reconciliation schema mirrors the reconciliation store.
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
