package enums

import "testing"

func TestCategoryVendorSubRoleTable(t *testing.T) {
	cases := map[Category]SubRole{
		CategoryFruits:     SubRoleFruitVendor,
		CategoryVegetables: SubRoleVeggiesVendor,
		CategoryGrains:     SubRoleVeggiesVendor,
		CategorySpices:     SubRoleVeggiesVendor,
		CategoryMeat:       SubRoleButcher,
		CategoryDairy:      SubRoleDairyVendor,
	}
	for category, want := range cases {
		got, ok := category.VendorSubRole()
		if !ok || got != want {
			t.Fatalf("category %s expected %s got %s (ok=%v)", category, want, got, ok)
		}
	}
	if _, ok := Category("bakery").VendorSubRole(); ok {
		t.Fatal("unknown category should not map to a sub role")
	}
}

func TestRoleAllowsSubRole(t *testing.T) {
	if !RoleKitchen.AllowsSubRole(SubRoleChef) {
		t.Fatal("kitchen should allow chef")
	}
	if RoleKitchen.AllowsSubRole(SubRoleButcher) {
		t.Fatal("kitchen should not allow butcher")
	}
	if len(SubRolesFor(RoleSupplier)) != 0 {
		t.Fatal("supplier should have no sub roles")
	}
	if _, err := ParseSubRole(RoleTransporter, "driver"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseSubRole(RoleVendor, "driver"); err == nil {
		t.Fatal("expected vendor/driver to be rejected")
	}
}

func TestRideStatusPrecedes(t *testing.T) {
	if !RideStatusRequested.Precedes(RideStatusAccepted) {
		t.Fatal("requested should precede accepted")
	}
	if !RideStatusPickedUp.Precedes(RideStatusDelivered) {
		t.Fatal("picked_up should precede delivered")
	}
	if RideStatusDelivered.Precedes(RideStatusInTransit) {
		t.Fatal("delivered must not precede in_transit")
	}
	if RideStatusAccepted.Precedes(RideStatusAccepted) {
		t.Fatal("a status does not precede itself")
	}
	if RideStatus("lost").Precedes(RideStatusDelivered) {
		t.Fatal("unknown status should not precede anything")
	}
}

func TestInvoiceStatusTransitions(t *testing.T) {
	if !InvoiceStatusDraft.CanTransitionTo(InvoiceStatusSent) {
		t.Fatal("draft -> sent should be allowed")
	}
	if !InvoiceStatusSent.CanTransitionTo(InvoiceStatusPaid) {
		t.Fatal("sent -> paid should be allowed")
	}
	if InvoiceStatusPaid.CanTransitionTo(InvoiceStatusDraft) {
		t.Fatal("paid is final")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range validOrderStatuses {
		want := status == OrderStatusCompleted || status == OrderStatusCancelled
		if status.IsTerminal() != want {
			t.Fatalf("status %s terminal mismatch", status)
		}
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestParseTicketPriorityDefaults(t *testing.T) {
	p, err := ParseTicketPriority("")
	if err != nil || p != TicketPriorityMedium {
		t.Fatalf("expected medium default, got %s (%v)", p, err)
	}
	if _, err := ParseTicketPriority("urgent"); err == nil {
		t.Fatal("expected invalid priority")
	}
}
