package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Invoice is the financial snapshot of a completed order for one party.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:text;primaryKey" json:"id"`
	InvoiceNumber string              `gorm:"column:invoice_number;not null;uniqueIndex" json:"invoiceNumber"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:text;not null" json:"orderId"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:text;not null" json:"userId"`
	UserRole      enums.Role          `gorm:"column:user_role;not null" json:"userRole"`
	Items         []OrderItem         `gorm:"column:items;serializer:json" json:"items"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric;not null" json:"subtotal"`
	Tax           decimal.Decimal     `gorm:"column:tax;type:numeric;not null" json:"tax"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric;not null" json:"total"`
	Status        enums.InvoiceStatus `gorm:"column:status;not null" json:"status"`
	DueDate       time.Time           `gorm:"column:due_date;not null" json:"dueDate"`
	PaidAt        *time.Time          `gorm:"column:paid_at" json:"paidAt,omitempty"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
