package orders

import (
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// rideActor drives the transitions mirrored from a delivery ride. It never
// appears on a user.
const rideActor enums.Role = "ride"

// anyOpen matches every non-terminal source status.
const anyOpen enums.OrderStatus = "*"

type move struct {
	from enums.OrderStatus
	to   enums.OrderStatus
}

var roleMoves = map[enums.Role][]move{
	enums.RoleKitchen: {
		{enums.OrderStatusDraft, enums.OrderStatusPendingSupplier},
		{enums.OrderStatusDelivered, enums.OrderStatusKitchenConfirmed},
		{enums.OrderStatusDelivered, enums.OrderStatusCompleted},
		{enums.OrderStatusKitchenConfirmed, enums.OrderStatusCompleted},
		{anyOpen, enums.OrderStatusCancelled},
	},
	enums.RoleSupplier: {
		{enums.OrderStatusPendingSupplier, enums.OrderStatusVendorAssigned},
		{enums.OrderStatusPendingSupplier, enums.OrderStatusCancelled},
		{enums.OrderStatusVendorAssigned, enums.OrderStatusCancelled},
	},
	enums.RoleVendor: {
		{enums.OrderStatusVendorAssigned, enums.OrderStatusPacking},
		{enums.OrderStatusPacking, enums.OrderStatusPackedReady},
	},
	enums.RoleAdmin: {
		{anyOpen, enums.OrderStatusCancelled},
		{enums.OrderStatusDelivered, enums.OrderStatusCompleted},
	},
	rideActor: {
		{enums.OrderStatusPackedReady, enums.OrderStatusPickupRequested},
		{enums.OrderStatusPackedReady, enums.OrderStatusInTransit},
		{enums.OrderStatusPickupRequested, enums.OrderStatusInTransit},
		{enums.OrderStatusInTransit, enums.OrderStatusDelivered},
	},
}

// CanTransition reports whether role may move an order from one status to
// another. Transporters have no direct moves.
func CanTransition(role enums.Role, from, to enums.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	for _, m := range roleMoves[role] {
		if m.to != to {
			continue
		}
		if m.from == from || m.from == anyOpen {
			return true
		}
	}
	return false
}

// canReach reports whether role has any move into to.
func canReach(role enums.Role, to enums.OrderStatus) bool {
	for _, m := range roleMoves[role] {
		if m.to == to {
			return true
		}
	}
	return false
}

// orderStatusForRide maps a ride status onto the order status it implies.
func orderStatusForRide(status enums.RideStatus) (enums.OrderStatus, bool) {
	switch status {
	case enums.RideStatusAccepted:
		return enums.OrderStatusPickupRequested, true
	case enums.RideStatusPickedUp, enums.RideStatusInTransit:
		return enums.OrderStatusInTransit, true
	case enums.RideStatusDelivered:
		return enums.OrderStatusDelivered, true
	}
	return "", false
}
