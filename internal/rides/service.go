package rides

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/keylock"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

const msgRideNotFound = "Ride not found"

// OrderGateway is the slice of the order engine that ride transitions
// drive. Every method runs inside the caller's transaction with the order
// lock held.
type OrderGateway interface {
	LoadForRide(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
	AssignTransporter(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, transporter *models.User) error
	MirrorRideStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.RideStatus) error
}

// Service covers transporter actions on rides and the ride read side.
type Service interface {
	CreateRide(ctx context.Context, actor types.Actor, input CreateRideInput) (*models.Ride, error)
	AcceptRide(ctx context.Context, rideID, transporterID uuid.UUID) (*models.Ride, error)
	UpdateRideStatus(ctx context.Context, rideID, transporterID uuid.UUID, status string) (*models.Ride, error)
	UpdateLocation(ctx context.Context, rideID, transporterID uuid.UUID, coords types.Coordinates) (*models.Ride, error)
	ListAvailable(ctx context.Context) ([]models.Ride, error)
	ListByTransporter(ctx context.Context, transporterID uuid.UUID) ([]models.Ride, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Ride, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the ride service dependencies. Metrics may be nil.
type ServiceParams struct {
	Repo       Repository
	Users      users.Repository
	Dispatcher *Dispatcher
	Orders     OrderGateway
	Tx         txRunner
	Locker     keylock.Locker
	Metrics    statusCounter
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	users      users.Repository
	dispatcher *Dispatcher
	orders     OrderGateway
	tx         txRunner
	locker     keylock.Locker
	metrics    statusCounter
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ride repository required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	case params.Dispatcher == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dispatcher required")
	case params.Orders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order gateway required")
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
		dispatcher: params.Dispatcher,
		orders:     params.Orders,
		tx:         params.Tx,
		locker:     params.Locker,
		metrics:    params.Metrics,
		logg:       logg,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateRide opens the ride of a packed order that has none yet. Only an
// admin or the order's supplier may do so.
func (s *service) CreateRide(ctx context.Context, actor types.Actor, input CreateRideInput) (*models.Ride, error) {
	if actor.Role != enums.RoleAdmin && actor.Role != enums.RoleSupplier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers and admins can request rides")
	}
	release, err := s.locker.Lock(ctx, keylock.OrderKey(input.OrderID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	defer release()

	var ride *models.Ride
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.LoadForRide(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if actor.Role == enums.RoleSupplier && (order.SupplierID == nil || *order.SupplierID != actor.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another supplier")
		}
		if order.Status != enums.OrderStatusPackedReady {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "rides can only be requested for packed orders").
				WithDetails(map[string]string{"status": string(order.Status)})
		}

		var supplier *models.User
		if order.SupplierID != nil {
			supplier, err = s.users.WithTx(tx).FindByID(ctx, *order.SupplierID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
			}
		}
		pickup, drop := Route(order, supplier)
		if input.Pickup != nil && !input.Pickup.IsZero() {
			pickup = *input.Pickup
		}
		if input.Drop != nil && !input.Drop.IsZero() {
			drop = *input.Drop
		}

		ride, err = s.dispatcher.CreateForOrder(ctx, tx, order, pickup, drop)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ride, nil
}

// AcceptRide hands a requested ride to an active transporter. The claim is
// a conditional update, so two transporters racing for one ride cannot both
// win.
func (s *service) AcceptRide(ctx context.Context, rideID, transporterID uuid.UUID) (*models.Ride, error) {
	ride, err := s.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	transporter, err := s.users.FindByID(ctx, transporterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transporter")
	}
	if transporter.Role != enums.RoleTransporter || !transporter.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only active transporters can accept rides")
	}

	release, err := s.lockRide(ctx, ride)
	if err != nil {
		return nil, err
	}
	defer release()

	var accepted *models.Ride
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.Accept(ctx, ride.ID, transporter, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept ride")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "Ride already accepted")
		}
		if err := s.orders.AssignTransporter(ctx, tx, ride.OrderID, transporter); err != nil {
			return err
		}
		if err := s.orders.MirrorRideStatus(ctx, tx, ride.OrderID, enums.RideStatusAccepted); err != nil {
			return err
		}
		accepted, err = repo.FindByID(ctx, ride.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload ride")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observe(ctx, accepted)
	return accepted, nil
}

// UpdateRideStatus advances a ride one step for its transporter and mirrors
// the move into the order.
func (s *service) UpdateRideStatus(ctx context.Context, rideID, transporterID uuid.UUID, status string) (*models.Ride, error) {
	next, err := enums.ParseRideStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ride status")
	}
	if next == enums.RideStatusRequested || next == enums.RideStatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rides are accepted through the accept action")
	}

	ride, err := s.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(ride, transporterID); err != nil {
		return nil, err
	}

	release, err := s.lockRide(ctx, ride)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *models.Ride
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, rideID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload ride")
		}
		if !CanAdvance(current.Status, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ride status can only move forward").
				WithDetails(map[string]string{"from": string(current.Status), "to": string(next)})
		}

		now := s.now()
		current.Status = next
		columns := []string{"status"}
		switch next {
		case enums.RideStatusPickedUp:
			current.PickedUpAt = &now
			columns = append(columns, "picked_up_at")
		case enums.RideStatusDelivered:
			current.DeliveredAt = &now
			columns = append(columns, "delivered_at")
		}
		if err := repo.Update(ctx, current, columns...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ride")
		}
		if err := s.orders.MirrorRideStatus(ctx, tx, current.OrderID, next); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observe(ctx, updated)
	return updated, nil
}

// CanAdvance reports whether a transporter may move a ride from one status
// to the next. Only in_transit may be skipped.
func CanAdvance(from, to enums.RideStatus) bool {
	switch from {
	case enums.RideStatusAccepted:
		return to == enums.RideStatusPickedUp
	case enums.RideStatusPickedUp:
		return to == enums.RideStatusInTransit || to == enums.RideStatusDelivered
	case enums.RideStatusInTransit:
		return to == enums.RideStatusDelivered
	}
	return false
}

// UpdateLocation records the live position of an undelivered ride.
func (s *service) UpdateLocation(ctx context.Context, rideID, transporterID uuid.UUID, coords types.Coordinates) (*models.Ride, error) {
	if err := coords.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coordinates")
	}
	ride, err := s.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(ride, transporterID); err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, keylock.RideKey(ride.ID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire ride lock")
	}
	defer release()

	current, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload ride")
	}
	if current.Status == enums.RideStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ride already delivered")
	}
	current.Coordinates = &coords
	if err := s.repo.Update(ctx, current, "coordinates"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ride location")
	}
	return current, nil
}

// ListAvailable returns every requested ride, oldest first.
func (s *service) ListAvailable(ctx context.Context) ([]models.Ride, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.RideStatusRequested)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available rides")
	}
	return rows, nil
}

func (s *service) ListByTransporter(ctx context.Context, transporterID uuid.UUID) ([]models.Ride, error) {
	rows, err := s.repo.ListByTransporter(ctx, transporterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transporter rides")
	}
	return rows, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	ride, err := s.repo.FindByID(ctx, id)
	return ride, notFound(err, "load ride")
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Ride, error) {
	ride, err := s.repo.FindByOrder(ctx, orderID)
	return ride, notFound(err, "load order ride")
}

// lockRide takes the ride lock and then the order lock.
func (s *service) lockRide(ctx context.Context, ride *models.Ride) (func(), error) {
	releaseRide, err := s.locker.Lock(ctx, keylock.RideKey(ride.ID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire ride lock")
	}
	releaseOrder, err := s.locker.Lock(ctx, keylock.OrderKey(ride.OrderID))
	if err != nil {
		releaseRide()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	return func() {
		releaseOrder()
		releaseRide()
	}, nil
}

func (s *service) observe(ctx context.Context, ride *models.Ride) {
	if s.metrics != nil {
		s.metrics.RideStatus(string(ride.Status))
	}
	logCtx := s.logg.WithRideID(s.logg.WithOrderID(ctx, ride.OrderID.String()), ride.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "status", ride.Status), "ride updated")
}

func ownedBy(ride *models.Ride, transporterID uuid.UUID) error {
	if ride.TransporterID == nil || *ride.TransporterID != transporterID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "ride is assigned to another transporter")
	}
	return nil
}

func notFound(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgRideNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
