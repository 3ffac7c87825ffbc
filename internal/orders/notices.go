package orders

import (
	"fmt"

	"github.com/angelmondragon/supplychain-backend/internal/notifications"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

type notice struct {
	title  string
	format string
	kind   enums.NotificationType
}

// kitchenNotices is sent to the order's kitchen on entering a status.
var kitchenNotices = map[enums.OrderStatus]notice{
	enums.OrderStatusVendorAssigned: {"Vendor Assigned", "Vendors have been assigned to your order #%s", enums.NotificationTypeInfo},
	enums.OrderStatusPackedReady:    {"Order Ready for Pickup", "Order #%s is packed and ready for pickup", enums.NotificationTypeSuccess},
	enums.OrderStatusInTransit:      {"Order In Transit", "Your order #%s is on the way", enums.NotificationTypeInfo},
	enums.OrderStatusDelivered:      {"Order Delivered", "Order #%s has been delivered. Please confirm receipt.", enums.NotificationTypeSuccess},
	enums.OrderStatusCompleted:      {"Order Completed", "Order #%s has been completed", enums.NotificationTypeSuccess},
}

func (n notice) message(order *models.Order) notifications.Message {
	return notifications.Message{
		Title: n.title,
		Body:  fmt.Sprintf(n.format, order.OrderNumber),
		Type:  n.kind,
	}
}

func newOrderMessage(order *models.Order) notifications.Message {
	return notifications.Message{
		Title: "New Order Available",
		Body:  fmt.Sprintf("Order #%s from %s is waiting for assignment", order.OrderNumber, order.KitchenName),
		Type:  enums.NotificationTypeInfo,
	}
}

func vendorAssignmentMessage(order *models.Order, category enums.Category) notifications.Message {
	return notifications.Message{
		Title: "New Order Assignment",
		Body:  fmt.Sprintf("You have been assigned to fulfill %s items for order #%s", category, order.OrderNumber),
		Type:  enums.NotificationTypeInfo,
	}
}

func pendingReminderMessage(order *models.Order) notifications.Message {
	return notifications.Message{
		Title: "Order Still Waiting",
		Body:  fmt.Sprintf("Order #%s from %s is still waiting for a supplier", order.OrderNumber, order.KitchenName),
		Type:  enums.NotificationTypeWarning,
	}
}
