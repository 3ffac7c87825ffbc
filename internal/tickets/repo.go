package tickets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Repository exposes support ticket persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.SupportTicket) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error)
	Update(ctx context.Context, ticket *models.SupportTicket, columns ...string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SupportTicket, error)
	ListAll(ctx context.Context, status *enums.TicketStatus) ([]models.SupportTicket, error)
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

func (r *repository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) Update(ctx context.Context, ticket *models.SupportTicket, columns ...string) error {
	cols := append([]string{"updated_at"}, columns...)
	return r.db.WithContext(ctx).Model(ticket).Select(cols).Updates(ticket).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SupportTicket, error) {
	var rows []models.SupportTicket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every ticket, newest first, optionally narrowed to one
// status.
func (r *repository) ListAll(ctx context.Context, status *enums.TicketStatus) ([]models.SupportTicket, error) {
	var rows []models.SupportTicket
	tx := r.db.WithContext(ctx)
	if status != nil {
		tx = tx.Where("status = ?", *status)
	}
	if err := tx.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
