// Package seed installs the demo accounts into an empty store.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/idgen"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/security"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

// DemoAccount is one login installed by Run.
type DemoAccount struct {
	Email    string
	Password string
	Name     string
	Role     enums.Role
	SubRole  *enums.SubRole
}

func sub(s enums.SubRole) *enums.SubRole { return &s }

// DemoAccounts lists the accounts in insert order.
var DemoAccounts = []DemoAccount{
	{Email: "admin@supplychain.com", Password: "admin123", Name: "Admin User", Role: enums.RoleAdmin},
	{Email: "kitchen@supplychain.com", Password: "kitchen123", Name: "Kitchen Manager", Role: enums.RoleKitchen, SubRole: sub(enums.SubRoleRestaurantManager)},
	{Email: "supplier@supplychain.com", Password: "supplier123", Name: "Supplier Manager", Role: enums.RoleSupplier},
	{Email: "vendor@supplychain.com", Password: "vendor123", Name: "Vendor Manager", Role: enums.RoleVendor, SubRole: sub(enums.SubRoleVeggiesVendor)},
	{Email: "transporter@supplychain.com", Password: "transporter123", Name: "Driver", Role: enums.RoleTransporter, SubRole: sub(enums.SubRoleDriver)},
}

// DemoAddress is shared by every demo account.
var DemoAddress = types.Address{
	Street:      "123 Demo Street",
	City:        "Mumbai",
	State:       "Maharashtra",
	ZipCode:     "400001",
	Coordinates: &types.Coordinates{Lat: 19.0760, Lng: 72.8777},
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Params wires Run.
type Params struct {
	DB       txRunner
	Users    users.Repository
	Password config.PasswordConfig
	Logger   *logger.Logger
}

// Run inserts the demo accounts when the store holds no users. It reports
// whether anything was written.
func Run(ctx context.Context, p Params) (bool, error) {
	switch {
	case p.DB == nil:
		return false, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	case p.Users == nil:
		return false, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	seeded := false
	err := p.DB.WithTx(ctx, func(tx *gorm.DB) error {
		repo := p.Users.WithTx(tx)
		count, err := repo.Count(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
		}
		if count > 0 {
			return nil
		}
		for _, acct := range DemoAccounts {
			user, err := build(acct, p.Password)
			if err != nil {
				return err
			}
			if err := repo.Create(ctx, user); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create demo user "+acct.Email)
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		logg.Info(logg.WithField(ctx, "users", len(DemoAccounts)), "demo accounts seeded")
	}
	return seeded, nil
}

func build(acct DemoAccount, cfg config.PasswordConfig) (*models.User, error) {
	hash, err := security.HashPassword(acct.Password, cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash demo password")
	}
	uniqueID, err := idgen.UniqueID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate unique id")
	}
	business := acct.Name + " Business"
	return &models.User{
		UniqueID:     uniqueID,
		Email:        acct.Email,
		PasswordHash: hash,
		Name:         acct.Name,
		Phone:        fmt.Sprintf("+91 %d", 1000000000+rand.Int64N(9000000000)),
		Role:         acct.Role,
		SubRole:      acct.SubRole,
		BusinessName: &business,
		Address:      DemoAddress,
		IsActive:     true,
	}, nil
}
