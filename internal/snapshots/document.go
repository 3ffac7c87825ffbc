package snapshots

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
)

// Document is the persisted working state, keyed by collection name.
// Sessions are not part of it.
type Document struct {
	Users         []models.User          `json:"users"`
	Orders        []models.Order         `json:"orders"`
	Invoices      []models.Invoice       `json:"invoices"`
	Rides         []models.Ride          `json:"rides"`
	Notifications []models.Notification  `json:"notifications"`
	Tickets       []models.SupportTicket `json:"tickets"`
}

// Counts summarises a document for logs and the admin endpoint.
func (d *Document) Counts() map[string]int {
	return map[string]int{
		"users":         len(d.Users),
		"orders":        len(d.Orders),
		"invoices":      len(d.Invoices),
		"rides":         len(d.Rides),
		"notifications": len(d.Notifications),
		"tickets":       len(d.Tickets),
	}
}

// Redacted returns a copy safe to hand to API clients: password hashes are
// blanked. Flush and Restore keep working on the full document.
func (d *Document) Redacted() *Document {
	out := *d
	out.Users = make([]models.User, len(d.Users))
	copy(out.Users, d.Users)
	for i := range out.Users {
		out.Users[i].PasswordHash = ""
	}
	return &out
}

// Validate reports every dangling reference and duplicate id in the
// document at once.
func (d *Document) Validate() error {
	var err error
	users := map[uuid.UUID]struct{}{}
	for _, u := range d.Users {
		if _, dup := users[u.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("users: duplicate id %s", u.ID))
		}
		users[u.ID] = struct{}{}
		if !u.Role.IsValid() {
			err = multierr.Append(err, fmt.Errorf("users: %s has invalid role %q", u.ID, u.Role))
		}
	}
	knownUser := func(collection string, owner, ref uuid.UUID) {
		if _, ok := users[ref]; !ok {
			err = multierr.Append(err, fmt.Errorf("%s: %s references unknown user %s", collection, owner, ref))
		}
	}

	orders := map[uuid.UUID]struct{}{}
	for _, o := range d.Orders {
		if _, dup := orders[o.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("orders: duplicate id %s", o.ID))
		}
		orders[o.ID] = struct{}{}
		if !o.Status.IsValid() {
			err = multierr.Append(err, fmt.Errorf("orders: %s has invalid status %q", o.ID, o.Status))
		}
		knownUser("orders", o.ID, o.KitchenID)
		for _, ref := range []*uuid.UUID{o.SupplierID, o.TransporterID} {
			if ref != nil {
				knownUser("orders", o.ID, *ref)
			}
		}
		for _, item := range o.Items {
			if item.VendorID != nil {
				knownUser("orders", o.ID, *item.VendorID)
			}
		}
	}
	knownOrder := func(collection string, owner, ref uuid.UUID) {
		if _, ok := orders[ref]; !ok {
			err = multierr.Append(err, fmt.Errorf("%s: %s references unknown order %s", collection, owner, ref))
		}
	}

	for _, r := range d.Rides {
		knownOrder("rides", r.ID, r.OrderID)
		if r.TransporterID != nil {
			knownUser("rides", r.ID, *r.TransporterID)
		}
	}
	for _, inv := range d.Invoices {
		knownOrder("invoices", inv.ID, inv.OrderID)
		knownUser("invoices", inv.ID, inv.UserID)
	}
	for _, n := range d.Notifications {
		knownUser("notifications", n.ID, n.UserID)
	}
	for _, t := range d.Tickets {
		knownUser("tickets", t.ID, t.UserID)
	}
	return err
}
