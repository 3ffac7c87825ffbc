package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// CategoryDTO describes a category and the vendor specialization serving it.
type CategoryDTO struct {
	Value         enums.Category `json:"value"`
	Label         string         `json:"label"`
	VendorSubRole enums.SubRole  `json:"vendorSubRole"`
}

// Listing is one in-stock item offered by a vendor.
type Listing struct {
	VendorID   uuid.UUID                  `json:"vendorId"`
	VendorName string                     `json:"vendorName"`
	Item       models.VendorInventoryItem `json:"item"`
}

// ItemInput is an order line as submitted by a kitchen.
type ItemInput struct {
	ProductID   string           `json:"productId" validate:"required"`
	ProductName string           `json:"productName,omitempty"`
	Category    string           `json:"category,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}
