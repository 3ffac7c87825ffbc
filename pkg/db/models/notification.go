package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Notification stores in-app notifications addressed to a single user.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:text;primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:text;not null" json:"userId"`
	Title     string                 `gorm:"column:title;not null" json:"title"`
	Message   string                 `gorm:"column:message;not null" json:"message"`
	Type      enums.NotificationType `gorm:"column:type;not null" json:"type"`
	IsRead    bool                   `gorm:"column:is_read;not null" json:"isRead"`
	ActionURL *string                `gorm:"column:action_url" json:"actionUrl,omitempty"`
	ReadAt    *time.Time             `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
