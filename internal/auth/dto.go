package auth

import (
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens and profile produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.UserDTO `json:"user"`
}

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Email        string        `json:"email" validate:"required,email"`
	Password     string        `json:"password" validate:"required,min=8"`
	Name         string        `json:"name" validate:"required"`
	Phone        string        `json:"phone" validate:"required"`
	Role         string        `json:"role" validate:"required"`
	SubRole      *string       `json:"subRole,omitempty"`
	BusinessName *string       `json:"businessName,omitempty"`
	Address      types.Address `json:"address" validate:"required"`
}
