package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/agreements"
	"github.com/angelmondragon/supplychain-backend/internal/catalog"
	"github.com/angelmondragon/supplychain-backend/internal/invoices"
	"github.com/angelmondragon/supplychain-backend/internal/notifications"
	"github.com/angelmondragon/supplychain-backend/internal/rides"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/idgen"
	"github.com/angelmondragon/supplychain-backend/pkg/keylock"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
	"github.com/angelmondragon/supplychain-backend/pkg/visibility"
)

const (
	msgOrderNotFound = "Order not found"
	numberTries      = 5
)

// Service drives orders through the supply workflow. Every mutation holds
// the order lock and runs in one transaction together with its
// notifications, ride and invoices.
type Service interface {
	Create(ctx context.Context, actor types.Actor, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, status string) (*models.Order, error)
	AssignSupplier(ctx context.Context, actor types.Actor, orderID uuid.UUID, input AssignSupplierInput) (*models.Order, error)
	AcceptOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*AcceptResult, error)
	AssignVendor(ctx context.Context, actor types.Actor, orderID uuid.UUID, input AssignVendorInput) (*models.Order, error)

	GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Order, error)
	ListForActor(ctx context.Context, actor types.Actor) ([]models.Order, error)
	PendingForSupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error)
	Today(ctx context.Context, actor types.Actor) ([]models.Order, error)
	RemindPending(ctx context.Context, olderThan time.Duration) (int, error)

	rides.OrderGateway
}

type itemResolver interface {
	ResolveItem(input catalog.ItemInput) (models.OrderItem, error)
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, msg notifications.Message) error
	NotifyMany(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, msg notifications.Message) error
}

type invoiceGenerator interface {
	GenerateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, recipients []invoices.Recipient) ([]models.Invoice, error)
}

type rideDispatcher interface {
	CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, pickup, drop types.Address) (*models.Ride, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transitionCounter interface {
	OrderTransition(from, to string)
}

// ServiceParams bundles the order engine dependencies. Metrics may be nil.
type ServiceParams struct {
	Repo       Repository
	Users      users.Repository
	Catalog    itemResolver
	Notifier   notifier
	Invoices   invoiceGenerator
	Dispatcher rideDispatcher
	Tx         txRunner
	Locker     keylock.Locker
	Numbers    idgen.Generator
	Metrics    transitionCounter
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	users      users.Repository
	catalog    itemResolver
	notifier   notifier
	invoices   invoiceGenerator
	dispatcher rideDispatcher
	tx         txRunner
	locker     keylock.Locker
	numbers    idgen.Generator
	metrics    transitionCounter
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	case params.Catalog == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog required")
	case params.Notifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	case params.Invoices == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invoice generator required")
	case params.Dispatcher == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ride dispatcher required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Locker == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key locker required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       params.Repo,
		users:      params.Users,
		catalog:    params.Catalog,
		notifier:   params.Notifier,
		invoices:   params.Invoices,
		dispatcher: params.Dispatcher,
		tx:         params.Tx,
		locker:     params.Locker,
		numbers:    params.Numbers,
		metrics:    params.Metrics,
		logg:       logg,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create places a kitchen order in pending_supplier and tells every
// supplier the kitchen has an agreement with. No eligible supplier is not
// an error.
func (s *service) Create(ctx context.Context, actor types.Actor, input CreateOrderInput) (*models.Order, error) {
	if actor.Role != enums.RoleKitchen {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only kitchens can place orders")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order must contain at least one item")
	}
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		item, err := s.catalog.ResolveItem(in)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	kitchen, err := s.loadUser(ctx, s.users, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !kitchen.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Account is deactivated. Contact admin.")
	}
	address := kitchen.Address
	if input.Address != nil && !input.Address.IsZero() {
		address = *input.Address
	}
	number, err := s.freeNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:    number,
		KitchenID:      kitchen.ID,
		KitchenName:    kitchen.Name,
		KitchenAddress: address,
		Items:          items,
		Status:         enums.OrderStatusPendingSupplier,
		TotalAmount:    models.SumItems(items),
		Notes:          input.Notes,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.announce(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.observe(ctx, order, "new")
	return order, nil
}

// UpdateStatus applies a role-checked status change. A supplier moving an
// order to vendor_assigned is the same as taking it with AssignSupplier.
func (s *service) UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, status string) (*models.Order, error) {
	next, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}
	if actor.Role == enums.RoleSupplier && next == enums.OrderStatusVendorAssigned {
		return s.AssignSupplier(ctx, actor, orderID, AssignSupplierInput{})
	}
	if !canReach(actor.Role, next) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot set this status").
			WithDetails(map[string]string{"role": string(actor.Role), "status": string(next)})
	}

	var updated *models.Order
	err = s.withOrder(ctx, orderID, func(tx *gorm.DB, order *models.Order) error {
		if err := s.authorizeActor(ctx, tx, actor, order); err != nil {
			return err
		}
		if !CanTransition(actor.Role, order.Status, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
				WithDetails(map[string]string{"from": string(order.Status), "to": string(next)})
		}
		if err := s.enter(ctx, tx, order, next); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AssignSupplier hands a pending order to a supplier that has an agreement
// with the kitchen. Assigning the current supplier again is a no-op.
func (s *service) AssignSupplier(ctx context.Context, actor types.Actor, orderID uuid.UUID, input AssignSupplierInput) (*models.Order, error) {
	supplierID, err := supplierFor(actor, input)
	if err != nil {
		return nil, err
	}
	var updated *models.Order
	err = s.withOrder(ctx, orderID, func(tx *gorm.DB, order *models.Order) error {
		if _, err := s.assignSupplier(ctx, tx, order, supplierID); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AcceptOrder assigns the supplier and then routes each item category to
// the first eligible vendor. Categories already routed are left alone.
func (s *service) AcceptOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*AcceptResult, error) {
	if actor.Role != enums.RoleSupplier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers can accept orders")
	}

	result := &AcceptResult{Assigned: []CategoryAssignment{}, Unassigned: []enums.Category{}}
	err := s.withOrder(ctx, orderID, func(tx *gorm.DB, order *models.Order) error {
		supplier, err := s.assignSupplier(ctx, tx, order, actor.UserID)
		if err != nil {
			return err
		}
		// A repeated accept must not reopen routing once packing is done.
		if err := ensureRoutable(order); err != nil {
			return err
		}
		vendors, err := s.users.WithTx(tx).ListByRole(ctx, enums.RoleVendor, true)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
		}
		for _, category := range order.Categories() {
			if routed(order, category) {
				continue
			}
			vendor := visibility.FirstEligible(vendors, supplier, category)
			if vendor == nil {
				result.Unassigned = append(result.Unassigned, category)
				continue
			}
			if err := s.routeCategory(ctx, tx, order, category, vendor); err != nil {
				return err
			}
			result.Assigned = append(result.Assigned, CategoryAssignment{
				Category:   category,
				VendorID:   vendor.ID,
				VendorName: vendor.Name,
			})
		}
		reloaded, err := s.repo.WithTx(tx).FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		result.Order = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result.Unassigned) > 0 {
		s.logg.Warn(s.logg.WithFields(s.logg.WithOrderID(ctx, orderID.String()), map[string]any{
			"unassigned": result.Unassigned,
		}), "categories left without a vendor")
	}
	return result, nil
}

// AssignVendor routes every item of one category to a vendor chosen by the
// order's supplier. The order status does not change.
func (s *service) AssignVendor(ctx context.Context, actor types.Actor, orderID uuid.UUID, input AssignVendorInput) (*models.Order, error) {
	if actor.Role != enums.RoleSupplier && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers and admins can assign vendors")
	}
	category, err := enums.ParseCategory(input.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}

	var updated *models.Order
	err = s.withOrder(ctx, orderID, func(tx *gorm.DB, order *models.Order) error {
		if order.SupplierID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no supplier yet")
		}
		if actor.Role == enums.RoleSupplier && *order.SupplierID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another supplier")
		}
		if err := ensureRoutable(order); err != nil {
			return err
		}
		if !hasCategory(order, category) {
			return pkgerrors.New(pkgerrors.CodeValidation, "order has no items in this category").
				WithDetails(map[string]string{"category": string(category)})
		}

		userRepo := s.users.WithTx(tx)
		supplier, err := s.loadUser(ctx, userRepo, *order.SupplierID)
		if err != nil {
			return err
		}
		vendor, err := userRepo.FindByID(ctx, input.VendorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}
		if err := visibility.EnsureVendorEligible(visibility.VendorEligibilityInput{
			Vendor:   vendor,
			Assigner: supplier,
			Category: category,
		}); err != nil {
			return err
		}
		if err := s.routeCategory(ctx, tx, order, category, vendor); err != nil {
			return err
		}
		updated, err = s.repo.WithTx(tx).FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// LoadForRide reads an order inside the ride's transaction.
func (s *service) LoadForRide(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "load order")
	}
	return order, nil
}

// AssignTransporter records the transporter who accepted the order's ride.
func (s *service) AssignTransporter(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, transporter *models.User) error {
	order, err := s.LoadForRide(ctx, tx, orderID)
	if err != nil {
		return err
	}
	order.TransporterID = &transporter.ID
	order.TransporterName = &transporter.Name
	if err := s.repo.WithTx(tx).Update(ctx, order, "transporter_id", "transporter_name"); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign transporter")
	}
	return nil
}

// MirrorRideStatus moves the order to the status a ride change implies. An
// order already there is left alone.
func (s *service) MirrorRideStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.RideStatus) error {
	next, ok := orderStatusForRide(status)
	if !ok {
		return nil
	}
	order, err := s.LoadForRide(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order.Status == next {
		return nil
	}
	if !CanTransition(rideActor, order.Status, next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot follow the ride").
			WithDetails(map[string]string{"from": string(order.Status), "to": string(next)})
	}
	return s.enter(ctx, tx, order, next)
}

// GetByID returns an order the actor takes part in.
func (s *service) GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "load order")
	}
	ok, err := s.visible(ctx, s.users, actor, order)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not visible to this user")
	}
	return order, nil
}

// ListForActor returns the orders of the actor's role scope, newest first.
// Admins see everything.
func (s *service) ListForActor(ctx context.Context, actor types.Actor) ([]models.Order, error) {
	var (
		rows []models.Order
		err  error
	)
	switch actor.Role {
	case enums.RoleAdmin:
		rows, err = s.repo.ListAll(ctx)
	case enums.RoleKitchen:
		rows, err = s.repo.ListByKitchen(ctx, actor.UserID)
	case enums.RoleSupplier:
		rows, err = s.repo.ListBySupplier(ctx, actor.UserID)
	case enums.RoleVendor:
		rows, err = s.repo.ListByVendor(ctx, actor.UserID)
	case enums.RoleTransporter:
		rows, err = s.repo.ListByTransporter(ctx, actor.UserID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// PendingForSupplier lists unclaimed orders from kitchens the supplier has
// an agreement with.
func (s *service) PendingForSupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error) {
	supplier, err := s.loadUser(ctx, s.users, supplierID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByStatus(ctx, enums.OrderStatusPendingSupplier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}
	if len(rows) == 0 {
		return []models.Order{}, nil
	}

	kitchenIDs := make([]uuid.UUID, 0, len(rows))
	for _, order := range rows {
		kitchenIDs = append(kitchenIDs, order.KitchenID)
	}
	kitchens, err := s.users.FindByIDs(ctx, kitchenIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kitchens")
	}
	people := append(kitchens, *supplier)

	out := make([]models.Order, 0, len(rows))
	for _, order := range rows {
		if order.SupplierID != nil {
			continue
		}
		if agreements.Linked(people, order.KitchenID, supplier.ID) {
			out = append(out, order)
		}
	}
	return out, nil
}

// Today returns the actor's orders created on the current UTC calendar day.
func (s *service) Today(ctx context.Context, actor types.Actor) ([]models.Order, error) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.repo.ListCreatedBetween(ctx, start, start.Add(24*time.Hour))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list today's orders")
	}
	out := make([]models.Order, 0, len(rows))
	for i := range rows {
		ok, err := s.visible(ctx, s.users, actor, &rows[i])
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// RemindPending re-notifies agreed suppliers about orders that have waited
// in pending_supplier for longer than olderThan. It returns the number of
// orders reminded.
func (s *service) RemindPending(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.repo.ListStale(ctx, enums.OrderStatusPendingSupplier, s.now().Add(-olderThan))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale orders")
	}
	if len(stale) == 0 {
		return 0, nil
	}
	reminded := 0
	for i := range stale {
		order := &stale[i]
		kitchen, err := s.loadUser(ctx, s.users, order.KitchenID)
		if err != nil {
			return reminded, err
		}
		recipients, err := s.agreedSuppliers(ctx, s.users, kitchen)
		if err != nil {
			return reminded, err
		}
		if len(recipients) == 0 {
			continue
		}
		if err := s.notifier.NotifyMany(ctx, nil, recipients, pendingReminderMessage(order)); err != nil {
			return reminded, err
		}
		reminded++
	}
	return reminded, nil
}

// withOrder takes the order lock, opens a transaction and loads the order
// before calling fn.
func (s *service) withOrder(ctx context.Context, orderID uuid.UUID, fn func(tx *gorm.DB, order *models.Order) error) error {
	release, err := s.locker.Lock(ctx, keylock.OrderKey(orderID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	defer release()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return notFound(err, "load order")
		}
		return fn(tx, order)
	})
}

// ensureRoutable allows vendor routing only while items can still be packed.
func ensureRoutable(order *models.Order) error {
	switch order.Status {
	case enums.OrderStatusVendorAssigned, enums.OrderStatusPacking:
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "vendors can only be assigned before packing completes").
		WithDetails(map[string]string{"status": string(order.Status)})
}

// assignSupplier is AssignSupplier inside an open transaction. It returns
// the supplier row.
func (s *service) assignSupplier(ctx context.Context, tx *gorm.DB, order *models.Order, supplierID uuid.UUID) (*models.User, error) {
	userRepo := s.users.WithTx(tx)
	if order.SupplierID != nil {
		if *order.SupplierID != supplierID {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Order already assigned to another supplier")
		}
		return s.loadUser(ctx, userRepo, supplierID)
	}
	if !CanTransition(enums.RoleSupplier, order.Status, enums.OrderStatusVendorAssigned) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer waiting for a supplier").
			WithDetails(map[string]string{"status": string(order.Status)})
	}

	supplier, err := s.loadUser(ctx, userRepo, supplierID)
	if err != nil {
		return nil, err
	}
	if supplier.Role != enums.RoleSupplier || !supplier.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier must be an active supplier account")
	}
	kitchen, err := s.loadUser(ctx, userRepo, order.KitchenID)
	if err != nil {
		return nil, err
	}
	if !partners(kitchen, supplier) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Supplier has no agreement with this kitchen")
	}

	order.SupplierID = &supplier.ID
	order.SupplierName = &supplier.Name
	if err := s.repo.WithTx(tx).Update(ctx, order, "supplier_id", "supplier_name"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign supplier")
	}
	if err := s.enter(ctx, tx, order, enums.OrderStatusVendorAssigned); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *service) routeCategory(ctx context.Context, tx *gorm.DB, order *models.Order, category enums.Category, vendor *models.User) error {
	if _, err := s.repo.WithTx(tx).AssignCategory(ctx, order.ID, category, vendor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign vendor")
	}
	for i := range order.Items {
		if order.Items[i].Category == category {
			order.Items[i].VendorID = &vendor.ID
			order.Items[i].VendorName = &vendor.Name
		}
	}
	return s.notifier.Notify(ctx, tx, vendor.ID, vendorAssignmentMessage(order, category))
}

// enter persists the move into next and runs its side effects in tx.
func (s *service) enter(ctx context.Context, tx *gorm.DB, order *models.Order, next enums.OrderStatus) error {
	from := order.Status
	now := s.now()
	order.Status = next
	columns := []string{"status"}
	switch next {
	case enums.OrderStatusInTransit:
		if order.PickupTime == nil {
			order.PickupTime = &now
			columns = append(columns, "pickup_time")
		}
	case enums.OrderStatusDelivered:
		order.DeliveryTime = &now
		columns = append(columns, "delivery_time")
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
		columns = append(columns, "cancelled_at")
	}
	if err := s.repo.WithTx(tx).Update(ctx, order, columns...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	if n, ok := kitchenNotices[next]; ok {
		if err := s.notifier.Notify(ctx, tx, order.KitchenID, n.message(order)); err != nil {
			return err
		}
	}
	switch next {
	case enums.OrderStatusPendingSupplier:
		if err := s.announce(ctx, tx, order); err != nil {
			return err
		}
	case enums.OrderStatusPackedReady:
		if err := s.dispatch(ctx, tx, order); err != nil {
			return err
		}
	case enums.OrderStatusCompleted:
		recipients := []invoices.Recipient{{UserID: order.KitchenID, Role: enums.RoleKitchen}}
		if order.SupplierID != nil {
			recipients = append(recipients, invoices.Recipient{UserID: *order.SupplierID, Role: enums.RoleSupplier})
		}
		if _, err := s.invoices.GenerateForOrder(ctx, tx, order, recipients); err != nil {
			return err
		}
	}

	s.observe(ctx, order, string(from))
	return nil
}

// announce tells every active supplier with an agreement with the kitchen
// about a new pending order.
func (s *service) announce(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	userRepo := s.users.WithTx(tx)
	kitchen, err := s.loadUser(ctx, userRepo, order.KitchenID)
	if err != nil {
		return err
	}
	recipients, err := s.agreedSuppliers(ctx, userRepo, kitchen)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "no supplier has an agreement with the kitchen")
		return nil
	}
	return s.notifier.NotifyMany(ctx, tx, recipients, newOrderMessage(order))
}

func (s *service) agreedSuppliers(ctx context.Context, userRepo users.Repository, kitchen *models.User) ([]uuid.UUID, error) {
	suppliers, err := userRepo.ListByRole(ctx, enums.RoleSupplier, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	ids := make([]uuid.UUID, 0, len(suppliers))
	for i := range suppliers {
		if partners(kitchen, &suppliers[i]) {
			ids = append(ids, suppliers[i].ID)
		}
	}
	return ids, nil
}

func (s *service) dispatch(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	var supplier *models.User
	if order.SupplierID != nil {
		found, err := s.users.WithTx(tx).FindByID(ctx, *order.SupplierID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
		}
		supplier = found
	}
	pickup, drop := rides.Route(order, supplier)
	_, err := s.dispatcher.CreateForOrder(ctx, tx, order, pickup, drop)
	return err
}

// authorizeActor checks that actor takes part in order in the capacity
// their role implies.
func (s *service) authorizeActor(ctx context.Context, tx *gorm.DB, actor types.Actor, order *models.Order) error {
	ok, err := s.visible(ctx, s.users.WithTx(tx), actor, order)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another party")
	}
	return nil
}

// visible reports whether actor may see order. Suppliers see their own
// orders and unclaimed orders of kitchens they have an agreement with.
func (s *service) visible(ctx context.Context, userRepo users.Repository, actor types.Actor, order *models.Order) (bool, error) {
	switch actor.Role {
	case enums.RoleAdmin:
		return true, nil
	case enums.RoleKitchen:
		return order.KitchenID == actor.UserID, nil
	case enums.RoleTransporter:
		return order.TransporterID != nil && *order.TransporterID == actor.UserID, nil
	case enums.RoleVendor:
		for _, item := range order.Items {
			if item.VendorID != nil && *item.VendorID == actor.UserID {
				return true, nil
			}
		}
		return false, nil
	case enums.RoleSupplier:
		if order.SupplierID != nil {
			return *order.SupplierID == actor.UserID, nil
		}
		rows, err := userRepo.FindByIDs(ctx, []uuid.UUID{order.KitchenID, actor.UserID})
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agreement parties")
		}
		return agreements.Linked(rows, order.KitchenID, actor.UserID), nil
	}
	return false, nil
}

func (s *service) loadUser(ctx context.Context, repo users.Repository, id uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) freeNumber(ctx context.Context) (string, error) {
	for i := 0; i < numberTries; i++ {
		number, err := s.numbers.OrderNumber()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		taken, err := s.repo.NumberTaken(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if !taken {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate an order number")
}

func (s *service) observe(ctx context.Context, order *models.Order, from string) {
	if s.metrics != nil {
		s.metrics.OrderTransition(from, string(order.Status))
	}
	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{
		"from": from,
		"to":   order.Status,
	})
	s.logg.Info(logCtx, "order status changed")
}

func supplierFor(actor types.Actor, input AssignSupplierInput) (uuid.UUID, error) {
	switch {
	case actor.Role == enums.RoleSupplier:
		if input.SupplierID != nil && *input.SupplierID != actor.UserID {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "suppliers can only assign themselves")
		}
		return actor.UserID, nil
	case actor.IsAdmin():
		if input.SupplierID == nil || *input.SupplierID == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "supplierId is required")
		}
		return *input.SupplierID, nil
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers and admins can assign suppliers")
}

func partners(a, b *models.User) bool {
	return a.HasPartner(b.ID) || b.HasPartner(a.ID)
}

func routed(order *models.Order, category enums.Category) bool {
	for _, item := range order.Items {
		if item.Category == category && item.VendorID != nil {
			return true
		}
	}
	return false
}

func hasCategory(order *models.Order, category enums.Category) bool {
	for _, item := range order.Items {
		if item.Category == category {
			return true
		}
	}
	return false
}

func notFound(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
