package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

// Ride is the single delivery run of an order.
type Ride struct {
	ID              uuid.UUID          `gorm:"column:id;type:text;primaryKey" json:"id"`
	OrderID         uuid.UUID          `gorm:"column:order_id;type:text;not null;uniqueIndex" json:"orderId"`
	OrderNumber     string             `gorm:"column:order_number;not null" json:"orderNumber"`
	TransporterID   *uuid.UUID         `gorm:"column:transporter_id;type:text" json:"transporterId,omitempty"`
	TransporterName *string            `gorm:"column:transporter_name" json:"transporterName,omitempty"`
	PickupAddress   types.Address      `gorm:"column:pickup_address;serializer:json" json:"pickupAddress"`
	DropAddress     types.Address      `gorm:"column:drop_address;serializer:json" json:"dropAddress"`
	Status          enums.RideStatus   `gorm:"column:status;not null" json:"status"`
	Coordinates     *types.Coordinates `gorm:"column:coordinates;serializer:json" json:"coordinates,omitempty"`
	AcceptedAt      *time.Time         `gorm:"column:accepted_at" json:"acceptedAt,omitempty"`
	PickedUpAt      *time.Time         `gorm:"column:picked_up_at" json:"pickedUpAt,omitempty"`
	DeliveredAt     *time.Time         `gorm:"column:delivered_at" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (r *Ride) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
