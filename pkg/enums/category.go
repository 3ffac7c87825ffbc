package enums

import "fmt"

// Category groups catalog products and drives vendor routing.
type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryMeat       Category = "meat"
	CategoryDairy      Category = "dairy"
	CategoryGrains     Category = "grains"
	CategorySpices     Category = "spices"
)

var validCategories = []Category{
	CategoryFruits,
	CategoryVegetables,
	CategoryMeat,
	CategoryDairy,
	CategoryGrains,
	CategorySpices,
}

// vendorSubRoleByCategory is the fixed routing table: an item of a category
// can only be packed by a vendor holding the mapped specialization.
var vendorSubRoleByCategory = map[Category]SubRole{
	CategoryFruits:     SubRoleFruitVendor,
	CategoryVegetables: SubRoleVeggiesVendor,
	CategoryGrains:     SubRoleVeggiesVendor,
	CategorySpices:     SubRoleVeggiesVendor,
	CategoryMeat:       SubRoleButcher,
	CategoryDairy:      SubRoleDairyVendor,
}

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// VendorSubRole returns the vendor specialization that serves c.
func (c Category) VendorSubRole() (SubRole, bool) {
	sub, ok := vendorSubRoleByCategory[c]
	return sub, ok
}

// Categories returns every catalog category in display order.
func Categories() []Category {
	out := make([]Category, len(validCategories))
	copy(out, validCategories)
	return out
}

func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}
