package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/internal/catalog"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

// CreateOrderInput is a kitchen's order request. Address overrides the
// kitchen's profile address when set.
type CreateOrderInput struct {
	Items   []catalog.ItemInput `json:"items" validate:"required,min=1,dive"`
	Address *types.Address      `json:"address,omitempty"`
	Notes   *string             `json:"notes,omitempty"`
}

// StatusInput moves an order along the role transition table.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

// AssignSupplierInput names the supplier taking the order. Suppliers may
// leave it empty to take the order themselves.
type AssignSupplierInput struct {
	SupplierID *uuid.UUID `json:"supplierId,omitempty"`
}

// AssignVendorInput routes every item of one category to a vendor.
type AssignVendorInput struct {
	Category string    `json:"category" validate:"required"`
	VendorID uuid.UUID `json:"vendorId" validate:"required"`
}

// CategoryAssignment reports the vendor picked for one category.
type CategoryAssignment struct {
	Category   enums.Category `json:"category"`
	VendorID   uuid.UUID      `json:"vendorId"`
	VendorName string         `json:"vendorName"`
}

// AcceptResult is the outcome of a supplier accepting an order. Categories
// without an eligible vendor stay unassigned for the supplier to resolve.
type AcceptResult struct {
	Order      *models.Order        `json:"order"`
	Assigned   []CategoryAssignment `json:"assigned"`
	Unassigned []enums.Category     `json:"unassigned"`
}
