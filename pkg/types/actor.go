package types

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}
