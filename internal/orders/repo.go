package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	NumberTaken(ctx context.Context, number string) (bool, error)
	Update(ctx context.Context, order *models.Order, columns ...string) error
	AssignCategory(ctx context.Context, orderID uuid.UUID, category enums.Category, vendor *models.User) (int64, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByKitchen(ctx context.Context, kitchenID uuid.UUID) ([]models.Order, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error)
	ListByTransporter(ctx context.Context, transporterID uuid.UUID) ([]models.Order, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
	ListStale(ctx context.Context, status enums.OrderStatus, before time.Time) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) NumberTaken(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error
	return count > 0, err
}

// Update writes the named order columns. Items are never touched here; use
// AssignCategory for vendor annotations.
func (r *repository) Update(ctx context.Context, order *models.Order, columns ...string) error {
	cols := append([]string{"updated_at"}, columns...)
	return r.db.WithContext(ctx).Model(order).Omit("Items").Select(cols).Updates(order).Error
}

// AssignCategory stamps vendor on every item of category and returns the
// number of items touched.
func (r *repository) AssignCategory(ctx context.Context, orderID uuid.UUID, category enums.Category, vendor *models.User) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND category = ?", orderID, category).
		Updates(map[string]any{"vendor_id": vendor.ID, "vendor_name": vendor.Name})
	return res.RowsAffected, res.Error
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	var rows []models.Order
	tx := r.withItems(ctx)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	if err := tx.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, "")
}

func (r *repository) ListByKitchen(ctx context.Context, kitchenID uuid.UUID) ([]models.Order, error) {
	return r.list(ctx, "kitchen_id = ?", kitchenID)
}

func (r *repository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error) {
	return r.list(ctx, "supplier_id = ?", supplierID)
}

// ListByVendor returns orders with at least one item assigned to vendorID.
func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error) {
	return r.list(ctx, "id IN (SELECT order_id FROM order_items WHERE vendor_id = ?)", vendorID)
}

func (r *repository) ListByTransporter(ctx context.Context, transporterID uuid.UUID) ([]models.Order, error) {
	return r.list(ctx, "transporter_id = ?", transporterID)
}

func (r *repository) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	return r.list(ctx, "status = ?", status)
}

// ListCreatedBetween covers [from, to).
func (r *repository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	return r.list(ctx, "created_at >= ? AND created_at < ?", from, to)
}

// ListStale returns orders sitting in status since before, oldest first.
func (r *repository) ListStale(ctx context.Context, status enums.OrderStatus, before time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.withItems(ctx).
		Where("status = ? AND updated_at < ?", status, before).
		Order("updated_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
