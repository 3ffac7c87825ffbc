package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

type SupportTicket struct {
	ID        uuid.UUID            `gorm:"column:id;type:text;primaryKey" json:"id"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:text;not null" json:"userId"`
	UserName  string               `gorm:"column:user_name;not null" json:"userName"`
	Subject   string               `gorm:"column:subject;not null" json:"subject"`
	Message   string               `gorm:"column:message;not null" json:"message"`
	Status    enums.TicketStatus   `gorm:"column:status;not null" json:"status"`
	Priority  enums.TicketPriority `gorm:"column:priority;not null" json:"priority"`
	Responses []TicketResponse     `gorm:"column:responses;serializer:json" json:"responses"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (t *SupportTicket) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Responses == nil {
		t.Responses = []TicketResponse{}
	}
	return nil
}

// TicketResponse is an append-only reply on a ticket thread.
type TicketResponse struct {
	ID        uuid.UUID `json:"id"`
	TicketID  uuid.UUID `json:"ticketId"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
