package rides

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Repository exposes ride persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ride *models.Ride) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Ride, error)
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	Accept(ctx context.Context, rideID uuid.UUID, transporter *models.User, at time.Time) (bool, error)
	Update(ctx context.Context, ride *models.Ride, columns ...string) error
	ListByStatus(ctx context.Context, status enums.RideStatus) ([]models.Ride, error)
	ListByTransporter(ctx context.Context, transporterID uuid.UUID) ([]models.Ride, error)
	ListStale(ctx context.Context, status enums.RideStatus, before time.Time) ([]models.Ride, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ride *models.Ride) error {
	return r.db.WithContext(ctx).Create(ride).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	var ride models.Ride
	if err := r.db.WithContext(ctx).First(&ride, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ride, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Ride, error) {
	var ride models.Ride
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&ride).Error; err != nil {
		return nil, err
	}
	return &ride, nil
}

func (r *repository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ride{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

// Accept claims a requested ride for transporter. It reports false when
// the ride was no longer requested, so at most one caller wins.
func (r *repository) Accept(ctx context.Context, rideID uuid.UUID, transporter *models.User, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ride{}).
		Where("id = ? AND status = ?", rideID, enums.RideStatusRequested).
		Updates(map[string]any{
			"status":           enums.RideStatusAccepted,
			"transporter_id":   transporter.ID,
			"transporter_name": transporter.Name,
			"accepted_at":      at,
			"updated_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Update(ctx context.Context, ride *models.Ride, columns ...string) error {
	cols := append([]string{"updated_at"}, columns...)
	return r.db.WithContext(ctx).Model(ride).Select(cols).Updates(ride).Error
}

// liveOrders drops rides whose order has already been completed or
// cancelled; cancelling an order leaves its ride row untouched.
func liveOrders(db *gorm.DB) *gorm.DB {
	return db.Where("order_id NOT IN (SELECT id FROM orders WHERE status IN ?)", enums.TerminalOrderStatuses())
}

func (r *repository) ListByStatus(ctx context.Context, status enums.RideStatus) ([]models.Ride, error) {
	var rows []models.Ride
	err := r.db.WithContext(ctx).
		Scopes(liveOrders).
		Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByTransporter(ctx context.Context, transporterID uuid.UUID) ([]models.Ride, error) {
	var rows []models.Ride
	err := r.db.WithContext(ctx).
		Where("transporter_id = ?", transporterID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListStale(ctx context.Context, status enums.RideStatus, before time.Time) ([]models.Ride, error) {
	var rows []models.Ride
	err := r.db.WithContext(ctx).
		Scopes(liveOrders).
		Where("status = ? AND created_at < ?", status, before).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
