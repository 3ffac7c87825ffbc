package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

func init() {
	// Amounts travel as JSON numbers for UI collaborators and snapshots.
	decimal.MarshalJSONWithoutQuotes = true
}

// Order is the aggregate root of the supply workflow. Kitchen name and
// address are snapshotted at creation.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:text;primaryKey" json:"id"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex" json:"orderNumber"`
	KitchenID       uuid.UUID         `gorm:"column:kitchen_id;type:text;not null" json:"kitchenId"`
	KitchenName     string            `gorm:"column:kitchen_name;not null" json:"kitchenName"`
	KitchenAddress  types.Address     `gorm:"column:kitchen_address;serializer:json" json:"kitchenAddress"`
	SupplierID      *uuid.UUID        `gorm:"column:supplier_id;type:text" json:"supplierId,omitempty"`
	SupplierName    *string           `gorm:"column:supplier_name" json:"supplierName,omitempty"`
	TransporterID   *uuid.UUID        `gorm:"column:transporter_id;type:text" json:"transporterId,omitempty"`
	TransporterName *string           `gorm:"column:transporter_name" json:"transporterName,omitempty"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID" json:"items"`
	Status          enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric;not null" json:"totalAmount"`
	Notes           *string           `gorm:"column:notes" json:"notes,omitempty"`
	PickupTime      *time.Time        `gorm:"column:pickup_time" json:"pickupTime,omitempty"`
	DeliveryTime    *time.Time        `gorm:"column:delivery_time" json:"deliveryTime,omitempty"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Categories returns the distinct item categories in first-seen order.
func (o *Order) Categories() []enums.Category {
	seen := map[enums.Category]struct{}{}
	out := []enums.Category{}
	for _, item := range o.Items {
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		out = append(out, item.Category)
	}
	return out
}

// OrderItem is a line item. Quantity and price are fixed at creation; only
// the vendor fields change afterwards.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:text;primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:text;not null" json:"-"`
	Position    int             `gorm:"column:position;not null" json:"-"`
	ProductID   string          `gorm:"column:product_id;not null" json:"productId"`
	ProductName string          `gorm:"column:product_name;not null" json:"productName"`
	Category    enums.Category  `gorm:"column:category;not null" json:"category"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric;not null" json:"quantity"`
	Unit        string          `gorm:"column:unit;not null" json:"unit"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric;not null" json:"price"`
	VendorID    *uuid.UUID      `gorm:"column:vendor_id;type:text" json:"vendorId,omitempty"`
	VendorName  *string         `gorm:"column:vendor_name" json:"vendorName,omitempty"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// SumItems totals price times quantity across items without rounding.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
