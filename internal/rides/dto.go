package rides

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

// CreateRideInput opens a ride by hand. Missing addresses fall back to Route.
type CreateRideInput struct {
	OrderID uuid.UUID      `json:"orderId" validate:"required"`
	Pickup  *types.Address `json:"pickupAddress,omitempty"`
	Drop    *types.Address `json:"dropAddress,omitempty"`
}

// StatusInput is the transporter payload for advancing a ride.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=picked_up in_transit delivered"`
}

// LocationInput carries a live position update.
type LocationInput struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lng *float64 `json:"lng" validate:"required"`
}
