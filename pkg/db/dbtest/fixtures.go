package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

// UserOption tweaks a fixture user before insert.
type UserOption func(*models.User)

func WithSubRole(sub enums.SubRole) UserOption {
	return func(u *models.User) { u.SubRole = &sub }
}

func Inactive() UserOption {
	return func(u *models.User) { u.IsActive = false }
}

func WithName(name string) UserOption {
	return func(u *models.User) { u.Name = name }
}

// CreateUser inserts an active user of role with a unique email and
// public id. The address is the Mumbai demo address.
func CreateUser(t testing.TB, conn *gorm.DB, role enums.Role, opts ...UserOption) *models.User {
	t.Helper()

	id := uuid.New()
	user := &models.User{
		ID:           id,
		UniqueID:     id.String()[:12],
		Email:        fmt.Sprintf("%s-%s@example.com", role, id.String()[:8]),
		PasswordHash: "x",
		Name:         fmt.Sprintf("%s %s", role, id.String()[:4]),
		Phone:        "+91 9000000000",
		Role:         role,
		IsActive:     true,
		Address: types.Address{
			Street:      "123 Demo Street",
			City:        "Mumbai",
			State:       "Maharashtra",
			ZipCode:     "400001",
			Coordinates: &types.Coordinates{Lat: 19.0760, Lng: 72.8777},
		},
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create %s fixture: %v", role, err)
	}
	return user
}

// Agree links two fixture users in both directions.
func Agree(t testing.TB, conn *gorm.DB, a, b *models.User) {
	t.Helper()

	a.Agreements = append(a.Agreements, b.ID)
	b.Agreements = append(b.Agreements, a.ID)
	for _, u := range []*models.User{a, b} {
		if err := conn.Save(u).Error; err != nil {
			t.Fatalf("link agreement: %v", err)
		}
	}
}

// OrderOption tweaks a fixture order before insert.
type OrderOption func(*models.Order)

func WithStatus(status enums.OrderStatus) OrderOption {
	return func(o *models.Order) { o.Status = status }
}

func WithSupplier(supplier *models.User) OrderOption {
	return func(o *models.Order) {
		o.SupplierID = &supplier.ID
		o.SupplierName = &supplier.Name
	}
}

func WithItems(items ...models.OrderItem) OrderOption {
	return func(o *models.Order) { o.Items = items }
}

// Item builds an order line for fixtures.
func Item(productID string, category enums.Category, quantity, price int64) models.OrderItem {
	return models.OrderItem{
		ProductID:   productID,
		ProductName: productID,
		Category:    category,
		Quantity:    decimal.NewFromInt(quantity),
		Unit:        "kg",
		Price:       decimal.NewFromInt(price),
	}
}

// CreateOrder inserts a pending_supplier order for kitchen. Without
// WithItems it carries one vegetables line of 2 x 40.
func CreateOrder(t testing.TB, conn *gorm.DB, kitchen *models.User, opts ...OrderOption) *models.Order {
	t.Helper()

	id := uuid.New()
	order := &models.Order{
		ID:             id,
		OrderNumber:    "ORD" + id.String()[:9],
		KitchenID:      kitchen.ID,
		KitchenName:    kitchen.Name,
		KitchenAddress: kitchen.Address,
		Status:         enums.OrderStatusPendingSupplier,
		Items:          []models.OrderItem{Item("v1", enums.CategoryVegetables, 2, 40)},
	}
	for _, opt := range opts {
		opt(order)
	}
	for i := range order.Items {
		order.Items[i].Position = i
	}
	order.TotalAmount = models.SumItems(order.Items)
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("create order fixture: %v", err)
	}
	return order
}
