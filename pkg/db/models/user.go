package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

// User is a party in the supply workflow. Agreements hold the ids of
// partners; the relation is kept symmetric by the agreements service.
type User struct {
	ID                  uuid.UUID             `gorm:"column:id;type:text;primaryKey" json:"id"`
	UniqueID            string                `gorm:"column:unique_id;not null;uniqueIndex" json:"uniqueId"`
	Email               string                `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash        string                `gorm:"column:password_hash;not null" json:"passwordHash"`
	Name                string                `gorm:"column:name;not null" json:"name"`
	Phone               string                `gorm:"column:phone;not null" json:"phone"`
	Role                enums.Role            `gorm:"column:role;not null" json:"role"`
	SubRole             *enums.SubRole        `gorm:"column:sub_role" json:"subRole,omitempty"`
	BusinessName        *string               `gorm:"column:business_name" json:"businessName,omitempty"`
	Address             types.Address         `gorm:"column:address;serializer:json" json:"address"`
	IsActive            bool                  `gorm:"column:is_active;not null" json:"isActive"`
	Agreements          []uuid.UUID           `gorm:"column:agreements;serializer:json" json:"agreements"`
	Inventory           []VendorInventoryItem `gorm:"column:inventory;serializer:json" json:"inventory,omitempty"`
	VerificationDetails *VerificationDetails  `gorm:"column:verification_details;serializer:json" json:"verificationDetails,omitempty"`
	LastLoginAt         *time.Time            `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Agreements == nil {
		u.Agreements = []uuid.UUID{}
	}
	if u.Inventory == nil {
		u.Inventory = []VendorInventoryItem{}
	}
	return nil
}

// HasPartner reports whether id is in the user's agreement set.
func (u *User) HasPartner(id uuid.UUID) bool {
	for _, partner := range u.Agreements {
		if partner == id {
			return true
		}
	}
	return false
}

// VendorInventoryItem is a vendor's own listing of a product.
type VendorInventoryItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Category  enums.Category  `json:"category"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"inStock"`
}

// VerificationDetails carries a transporter's document review.
type VerificationDetails struct {
	LicenseNumber string                   `json:"licenseNumber"`
	RCNumber      string                   `json:"rcNumber"`
	VehicleNumber *string                  `json:"vehicleNumber,omitempty"`
	Status        enums.VerificationStatus `json:"status"`
	SubmittedAt   time.Time                `json:"submittedAt"`
	ReviewedAt    *time.Time               `json:"reviewedAt,omitempty"`
}
