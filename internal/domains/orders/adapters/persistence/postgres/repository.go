package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{})
	}
	return repo
}

// orderRecord maps the order aggregate to a relational table. Items are kept
// as parallel arrays; orders in this system carry a handful of lines at most.
type orderRecord struct {
	ID         int64          `gorm:"primaryKey;autoIncrement;column:id"`
	UserID     int64          `gorm:"column:user_id;index"`
	ProductIDs pq.Int64Array  `gorm:"column:product_ids;type:bigint[]"`
	Quantities pq.Int64Array  `gorm:"column:quantities;type:bigint[]"`
	Status     string         `gorm:"column:status;type:varchar(32);index"`
	TotalCost  int64          `gorm:"column:total_cost"`
	CreatedAt  time.Time      `gorm:"column:created_at;index"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Insert stores a new order and returns it with the database-assigned id.
func (r *Repository) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Transition flips the status with a conditional update. RowsAffected zero
// means the order is missing or not in the from state; a follow-up existence
// check disambiguates the two.
func (r *Repository) Transition(ctx context.Context, id int64, from, to domain.Status) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ports.ErrNotFound
		}
		return ports.ErrInvalidTransition
	}
	return nil
}

// ListByUser returns all orders of a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// List returns every order in the store, newest first.
func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		TotalCost: order.TotalCost,
	}
	rec.ProductIDs = make(pq.Int64Array, 0, len(order.Items))
	rec.Quantities = make(pq.Int64Array, 0, len(order.Items))
	for _, item := range order.Items {
		rec.ProductIDs = append(rec.ProductIDs, item.ProductID)
		rec.Quantities = append(rec.Quantities, int64(item.Quantity))
	}
	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Status:    domain.Status(r.Status),
		TotalCost: r.TotalCost,
		CreatedAt: r.CreatedAt,
	}
	for i := range r.ProductIDs {
		item := domain.Item{ProductID: r.ProductIDs[i]}
		if i < len(r.Quantities) {
			item.Quantity = int32(r.Quantities[i])
		}
		order.Items = append(order.Items, item)
	}
	return order
}
