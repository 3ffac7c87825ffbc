package enums

import "fmt"

// OrderStatus tracks an order through the supply workflow.
type OrderStatus string

const (
	OrderStatusDraft            OrderStatus = "draft"
	OrderStatusPendingSupplier  OrderStatus = "pending_supplier"
	OrderStatusVendorAssigned   OrderStatus = "vendor_assigned"
	OrderStatusPacking          OrderStatus = "packing"
	OrderStatusPackedReady      OrderStatus = "packed_ready"
	OrderStatusPickupRequested  OrderStatus = "pickup_requested"
	OrderStatusInTransit        OrderStatus = "in_transit"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusKitchenConfirmed OrderStatus = "kitchen_confirmed"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusPendingSupplier,
	OrderStatusVendorAssigned,
	OrderStatusPacking,
	OrderStatusPackedReady,
	OrderStatusPickupRequested,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusKitchenConfirmed,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// TerminalOrderStatuses lists the statuses IsTerminal accepts.
func TerminalOrderStatuses() []string {
	return []string{string(OrderStatusCompleted), string(OrderStatusCancelled)}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
