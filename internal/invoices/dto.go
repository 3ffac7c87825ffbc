package invoices

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Recipient is one party an order is invoiced to.
type Recipient struct {
	UserID uuid.UUID
	Role   enums.Role
}

// Stats sums invoice totals over a trailing window.
type Stats struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// StatsResponse is served by the stats endpoint.
type StatsResponse struct {
	Weekly  Stats `json:"weekly"`
	Monthly Stats `json:"monthly"`
}

// StatusUpdate is the admin payload for moving an invoice forward.
type StatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=draft sent paid"`
}
