package enums

import "fmt"

// SubRole narrows a role to a specialization.
type SubRole string

const (
	SubRoleChef              SubRole = "chef"
	SubRoleRestaurantManager SubRole = "restaurant_manager"
	SubRoleVeggiesVendor     SubRole = "veggies_vendor"
	SubRoleFruitVendor       SubRole = "fruit_vendor"
	SubRoleButcher           SubRole = "butcher"
	SubRoleDairyVendor       SubRole = "dairy_vendor"
	SubRoleDriver            SubRole = "driver"
	SubRoleDeliveryAgent     SubRole = "delivery_agent"
)

var subRolesByRole = map[Role][]SubRole{
	RoleKitchen:     {SubRoleChef, SubRoleRestaurantManager},
	RoleVendor:      {SubRoleVeggiesVendor, SubRoleFruitVendor, SubRoleButcher, SubRoleDairyVendor},
	RoleTransporter: {SubRoleDriver, SubRoleDeliveryAgent},
}

func (s SubRole) String() string {
	return string(s)
}

// SubRolesFor lists the specializations a role may carry. Suppliers and
// admins have none.
func SubRolesFor(role Role) []SubRole {
	allowed := subRolesByRole[role]
	out := make([]SubRole, len(allowed))
	copy(out, allowed)
	return out
}

// AllowsSubRole reports whether role may carry the given sub-role.
func (r Role) AllowsSubRole(sub SubRole) bool {
	for _, candidate := range subRolesByRole[r] {
		if candidate == sub {
			return true
		}
	}
	return false
}

// ParseSubRole validates value against the sub-roles permitted for role.
func ParseSubRole(role Role, value string) (SubRole, error) {
	sub := SubRole(value)
	if !role.AllowsSubRole(sub) {
		return "", fmt.Errorf("invalid sub role %q for role %q", value, role)
	}
	return sub, nil
}
