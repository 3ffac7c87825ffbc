// Package visibility decides which vendors a supplier may route order items
// to.
package visibility

import (
	"fmt"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
)

// VendorEligibilityInput drives the shared routing checks for one category.
type VendorEligibilityInput struct {
	Vendor   *models.User
	Assigner *models.User
	Category enums.Category
}

// EnsureVendorEligible enforces the routing rules: an active vendor whose
// sub-role serves the category and who has an agreement with the assigning
// party.
func EnsureVendorEligible(input VendorEligibilityInput) error {
	want, ok := input.Category.VendorSubRole()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid category %q", input.Category))
	}
	if input.Vendor == nil || input.Vendor.Role != enums.RoleVendor {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	if !input.Vendor.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor is inactive")
	}
	if input.Vendor.SubRole == nil || *input.Vendor.SubRole != want {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("vendor does not handle %s items", input.Category))
	}
	if input.Assigner == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "assigning supplier required")
	}
	if !input.Vendor.HasPartner(input.Assigner.ID) && !input.Assigner.HasPartner(input.Vendor.ID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor has no agreement with the supplier")
	}
	return nil
}

// FirstEligible returns the first vendor in candidates that passes
// EnsureVendorEligible, or nil.
func FirstEligible(candidates []models.User, assigner *models.User, category enums.Category) *models.User {
	for i := range candidates {
		input := VendorEligibilityInput{Vendor: &candidates[i], Assigner: assigner, Category: category}
		if EnsureVendorEligible(input) == nil {
			return &candidates[i]
		}
	}
	return nil
}
