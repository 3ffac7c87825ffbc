package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/dbtest"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.OpenGorm(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func strPtr(v string) *string { return &v }

func TestUpdateProfileWritesOnlyNamedFields(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	kitchen := dbtest.CreateUser(t, conn, enums.RoleKitchen)
	partner := dbtest.CreateUser(t, conn, enums.RoleSupplier)
	dbtest.Agree(t, conn, kitchen, partner)

	updated, err := svc.UpdateProfile(ctx, kitchen.ID, ProfileUpdate{
		Name:    strPtr("Spice Route"),
		SubRole: strPtr("chef"),
		Address: &types.Address{Street: "1 Market Rd", City: "Pune", State: "Maharashtra", ZipCode: "411001"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Spice Route", updated.Name)
	require.NotNil(t, updated.SubRole)
	assert.Equal(t, enums.SubRoleChef, *updated.SubRole)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", kitchen.ID).Error)
	assert.Equal(t, "Pune", stored.Address.City)
	assert.True(t, stored.HasPartner(partner.ID), "agreements must survive a profile update")
}

func TestUpdateProfileRejectsForeignSubRole(t *testing.T) {
	svc, conn := newTestService(t)
	kitchen := dbtest.CreateUser(t, conn, enums.RoleKitchen)

	_, err := svc.UpdateProfile(context.Background(), kitchen.ID, ProfileUpdate{SubRole: strPtr("butcher")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateProfile(context.Background(), uuid.New(), ProfileUpdate{Name: strPtr("x")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestUpdateInventory(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	vendor := dbtest.CreateUser(t, conn, enums.RoleVendor, dbtest.WithSubRole(enums.SubRoleFruitVendor))
	kitchen := dbtest.CreateUser(t, conn, enums.RoleKitchen)

	updated, err := svc.UpdateInventory(ctx, vendor.ID, []InventoryItemInput{
		{ProductID: "f1", Price: decimal.NewFromInt(110), InStock: true},
		{ProductID: "custom-1", Name: "Dragon Fruit", Category: "fruits", Unit: "piece", Price: decimal.NewFromInt(90)},
	})
	require.NoError(t, err)
	require.Len(t, updated.Inventory, 2)
	assert.Equal(t, "Apple", updated.Inventory[0].Name)
	assert.Equal(t, enums.CategoryFruits, updated.Inventory[0].Category)
	assert.NotEmpty(t, updated.Inventory[0].ID)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", vendor.ID).Error)
	require.Len(t, stored.Inventory, 2)
	assert.True(t, stored.Inventory[0].Price.Equal(decimal.NewFromInt(110)))

	_, err = svc.UpdateInventory(ctx, kitchen.ID, nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)

	_, err = svc.UpdateInventory(ctx, vendor.ID, []InventoryItemInput{{ProductID: "nope"}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestVerificationFlow(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	transporter := dbtest.CreateUser(t, conn, enums.RoleTransporter, dbtest.WithSubRole(enums.SubRoleDriver))

	_, err := svc.ReviewVerification(ctx, transporter.ID, "verified")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	submitted, err := svc.SubmitVerification(ctx, transporter.ID, VerificationInput{
		LicenseNumber: "MH-01-2020",
		RCNumber:      "RC-778",
		VehicleNumber: strPtr("MH01AB1234"),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.VerificationStatusPending, submitted.VerificationDetails.Status)

	_, err = svc.ReviewVerification(ctx, transporter.ID, "pending")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)

	reviewed, err := svc.ReviewVerification(ctx, transporter.ID, "verified")
	require.NoError(t, err)
	assert.Equal(t, enums.VerificationStatusVerified, reviewed.VerificationDetails.Status)
	assert.NotNil(t, reviewed.VerificationDetails.ReviewedAt)

	kitchen := dbtest.CreateUser(t, conn, enums.RoleKitchen)
	_, err = svc.SubmitVerification(ctx, kitchen.ID, VerificationInput{LicenseNumber: "a", RCNumber: "b"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestSetActiveAndListByRole(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	first := dbtest.CreateUser(t, conn, enums.RoleTransporter)
	dbtest.CreateUser(t, conn, enums.RoleTransporter)
	dbtest.CreateUser(t, conn, enums.RoleKitchen)

	_, err := svc.SetActive(ctx, first.ID, false)
	require.NoError(t, err)

	active, err := svc.ListByRole(ctx, enums.RoleTransporter, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListByRole(ctx, enums.RoleTransporter, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	reactivated, err := svc.SetActive(ctx, first.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func TestListPagesUsers(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		dbtest.CreateUser(t, conn, enums.RoleVendor)
	}
	dbtest.CreateUser(t, conn, enums.RoleKitchen)

	page, err := svc.List(ctx, ListParams{Role: "vendor", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := svc.List(ctx, ListParams{Role: "vendor", Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Empty(t, rest.Cursor)

	_, err = svc.List(ctx, ListParams{Role: "pirate"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestFromModelHidesCredentials(t *testing.T) {
	dto := FromModel(&models.User{ID: uuid.New(), PasswordHash: "secret", Role: enums.RoleKitchen})
	assert.Nil(t, dto.Inventory)
	assert.NotNil(t, dto.Agreements)
}
