package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID                  uuid.UUID                    `json:"id"`
	UniqueID            string                       `json:"uniqueId"`
	Email               string                       `json:"email"`
	Name                string                       `json:"name"`
	Phone               string                       `json:"phone"`
	Role                enums.Role                   `json:"role"`
	SubRole             *enums.SubRole               `json:"subRole,omitempty"`
	BusinessName        *string                      `json:"businessName,omitempty"`
	Address             types.Address                `json:"address"`
	IsActive            bool                         `json:"isActive"`
	Agreements          []uuid.UUID                  `json:"agreements"`
	Inventory           []models.VendorInventoryItem `json:"inventory,omitempty"`
	VerificationDetails *models.VerificationDetails  `json:"verificationDetails,omitempty"`
	LastLoginAt         *time.Time                   `json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time                    `json:"createdAt"`
	UpdatedAt           time.Time                    `json:"updatedAt"`
}

// PartnerDTO is the public view of an agreement partner.
type PartnerDTO struct {
	ID           uuid.UUID      `json:"id"`
	UniqueID     string         `json:"uniqueId"`
	Name         string         `json:"name"`
	Role         enums.Role     `json:"role"`
	SubRole      *enums.SubRole `json:"subRole,omitempty"`
	BusinessName *string        `json:"businessName,omitempty"`
	IsActive     bool           `json:"isActive"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:                  u.ID,
		UniqueID:            u.UniqueID,
		Email:               u.Email,
		Name:                u.Name,
		Phone:               u.Phone,
		Role:                u.Role,
		SubRole:             u.SubRole,
		BusinessName:        u.BusinessName,
		Address:             u.Address,
		IsActive:            u.IsActive,
		Agreements:          append([]uuid.UUID{}, u.Agreements...),
		VerificationDetails: u.VerificationDetails,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
	if u.Role == enums.RoleVendor {
		dto.Inventory = append([]models.VendorInventoryItem{}, u.Inventory...)
	}
	return dto
}

func FromModels(rows []models.User) []*UserDTO {
	out := make([]*UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

func PartnerFromModel(u *models.User) PartnerDTO {
	return PartnerDTO{
		ID:           u.ID,
		UniqueID:     u.UniqueID,
		Name:         u.Name,
		Role:         u.Role,
		SubRole:      u.SubRole,
		BusinessName: u.BusinessName,
		IsActive:     u.IsActive,
	}
}

// ProfileUpdate carries the self-service profile fields. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Name         *string        `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone        *string        `json:"phone,omitempty" validate:"omitempty,max=32"`
	BusinessName *string        `json:"businessName,omitempty" validate:"omitempty,max=160"`
	Address      *types.Address `json:"address,omitempty"`
	SubRole      *string        `json:"subRole,omitempty"`
}

// AdminUpdate extends ProfileUpdate with the fields only admins may set.
type AdminUpdate struct {
	ProfileUpdate
	IsActive *bool `json:"isActive,omitempty"`
}

// InventoryItemInput is one entry of a vendor's inventory replacement.
type InventoryItemInput struct {
	ID        string          `json:"id,omitempty"`
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name,omitempty"`
	Category  string          `json:"category,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"inStock"`
}

// VerificationInput is a transporter's document submission.
type VerificationInput struct {
	LicenseNumber string  `json:"licenseNumber" validate:"required,max=64"`
	RCNumber      string  `json:"rcNumber" validate:"required,max=64"`
	VehicleNumber *string `json:"vehicleNumber,omitempty" validate:"omitempty,max=32"`
}

// ListParams pages the admin user listing, newest first.
type ListParams struct {
	Role   string
	Limit  int
	Cursor string
}

type ListResult struct {
	Items  []*UserDTO `json:"items"`
	Cursor string     `json:"cursor"`
}
