package rides

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/notifications"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

var deliveryRequest = notifications.Message{
	Title: "New Delivery Request",
	Body:  "A new delivery pickup is available near you",
	Type:  enums.NotificationTypeInfo,
}

type notifier interface {
	NotifyMany(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, msg notifications.Message) error
}

type statusCounter interface {
	RideStatus(status string)
}

// Dispatcher opens rides for packed orders. It runs inside the caller's
// transaction and expects the caller to hold the order lock.
type Dispatcher struct {
	repo     Repository
	users    users.Repository
	notifier notifier
	metrics  statusCounter
	logg     *logger.Logger
	now      func() time.Time
}

// DispatcherParams bundles the dispatcher dependencies. Metrics may be nil.
type DispatcherParams struct {
	Repo     Repository
	Users    users.Repository
	Notifier notifier
	Metrics  statusCounter
	Logger   *logger.Logger
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ride repository required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{
		repo:     params.Repo,
		users:    params.Users,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateForOrder opens the single requested ride of order and tells every
// active transporter about it. A second ride for the same order is a
// conflict.
func (d *Dispatcher) CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, pickup, drop types.Address) (*models.Ride, error) {
	repo := d.repo.WithTx(tx)
	exists, err := repo.ExistsForOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing ride")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Ride already exists for this order")
	}

	now := d.now()
	ride := &models.Ride{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		PickupAddress: pickup,
		DropAddress:   drop,
		Status:        enums.RideStatusRequested,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Create(ctx, ride); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ride")
	}

	transporters, err := d.users.WithTx(tx).ListByRole(ctx, enums.RoleTransporter, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transporters")
	}
	ids := make([]uuid.UUID, 0, len(transporters))
	for _, t := range transporters {
		ids = append(ids, t.ID)
	}
	if err := d.notifier.NotifyMany(ctx, tx, ids, deliveryRequest); err != nil {
		return nil, err
	}

	if d.metrics != nil {
		d.metrics.RideStatus(string(enums.RideStatusRequested))
	}
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"ride_id":      ride.ID.String(),
		"transporters": len(ids),
	})
	d.logg.Info(logCtx, "ride requested")
	return ride, nil
}

// Route picks the default pickup and drop of an order: pickup from the
// supplier when one is known, otherwise the kitchen; drop at the kitchen.
func Route(order *models.Order, supplier *models.User) (pickup, drop types.Address) {
	drop = order.KitchenAddress
	pickup = drop
	if supplier != nil && !supplier.Address.IsZero() {
		pickup = supplier.Address
	}
	return pickup, drop
}

var staleRideReminder = notifications.Message{
	Title: "Delivery Still Waiting",
	Body:  "Ride for order #%s has not been accepted yet",
	Type:  enums.NotificationTypeWarning,
}

// RemindStale re-announces rides still requested at before to every
// active transporter and returns how many rides were announced.
func (d *Dispatcher) RemindStale(ctx context.Context, before time.Time) (int, error) {
	rides, err := d.repo.ListStale(ctx, enums.RideStatusRequested, before)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale rides")
	}
	if len(rides) == 0 {
		return 0, nil
	}
	transporters, err := d.users.ListByRole(ctx, enums.RoleTransporter, true)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transporters")
	}
	if len(transporters) == 0 {
		d.logg.Warn(d.logg.WithField(ctx, "rides", len(rides)), "no active transporters for stale rides")
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(transporters))
	for _, t := range transporters {
		ids = append(ids, t.ID)
	}
	for _, ride := range rides {
		msg := staleRideReminder
		msg.Body = fmt.Sprintf(staleRideReminder.Body, ride.OrderNumber)
		if err := d.notifier.NotifyMany(ctx, nil, ids, msg); err != nil {
			return 0, err
		}
	}
	return len(rides), nil
}
