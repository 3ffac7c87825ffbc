package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/db/dbtest"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/security"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

func newRegisterService(t *testing.T) RegisterService {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		UserRepo:       users.NewRepository(client.DB()),
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc
}

func strPtr(v string) *string { return &v }

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		Email:    "Vendor@Example.com",
		Password: "password123",
		Name:     "Green Leaf",
		Phone:    "+91 9876543210",
		Role:     "vendor",
		SubRole:  strPtr("veggies_vendor"),
		Address:  types.Address{Street: "5 Market Rd", City: "Mumbai", State: "Maharashtra", ZipCode: "400001"},
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	svc := newRegisterService(t)

	user, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	assert.Equal(t, "vendor@example.com", user.Email)
	assert.Equal(t, enums.RoleVendor, user.Role)
	require.NotNil(t, user.SubRole)
	assert.Equal(t, enums.SubRoleVeggiesVendor, *user.SubRole)
	assert.Len(t, user.UniqueID, 12)
	assert.Empty(t, user.Agreements)
	assert.Empty(t, user.Inventory)
	assert.True(t, user.IsActive)

	ok, err := security.VerifyPassword("password123", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newRegisterService(t)
	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	req := validRegisterRequest()
	req.Email = "vendor@example.com"
	_, err = svc.Register(context.Background(), req)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)
	assert.Equal(t, duplicateEmailMessage, pkgerrors.As(err).Message())
}

func TestRegisterValidation(t *testing.T) {
	svc := newRegisterService(t)

	cases := map[string]func(*RegisterRequest){
		"foreign sub role": func(r *RegisterRequest) { r.SubRole = strPtr("chef") },
		"unknown role":     func(r *RegisterRequest) { r.Role = "pilot" },
		"short password":   func(r *RegisterRequest) { r.Password = "short" },
		"blank name":       func(r *RegisterRequest) { r.Name = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRegisterRequest()
			mutate(&req)
			_, err := svc.Register(context.Background(), req)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestRegisterRefusesAdmin(t *testing.T) {
	svc := newRegisterService(t)
	req := validRegisterRequest()
	req.Role = "admin"
	req.SubRole = nil

	_, err := svc.Register(context.Background(), req)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)
}
