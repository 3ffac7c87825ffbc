package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/api/validators"
	"github.com/angelmondragon/supplychain-backend/internal/orders"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

type orderService interface {
	Create(ctx context.Context, actor types.Actor, input orders.CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, status string) (*models.Order, error)
	AssignSupplier(ctx context.Context, actor types.Actor, orderID uuid.UUID, input orders.AssignSupplierInput) (*models.Order, error)
	AcceptOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*orders.AcceptResult, error)
	AssignVendor(ctx context.Context, actor types.Actor, orderID uuid.UUID, input orders.AssignVendorInput) (*models.Order, error)
	GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Order, error)
	ListForActor(ctx context.Context, actor types.Actor) ([]models.Order, error)
	PendingForSupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error)
	Today(ctx context.Context, actor types.Actor) ([]models.Order, error)
}

// orderAction covers the handlers that act on one order addressed by
// {orderId}.
func orderAction(svc orderService, logg *logger.Logger, do func(r *http.Request, w http.ResponseWriter, actor types.Actor, id uuid.UUID) (any, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if out, ok := do(r, w, actor, id); ok {
			responses.WriteSuccess(w, out)
		}
	}
}

// OrderCreate places a kitchen order; the status is pending_supplier, or
// accepted when an explicit supplier took it in the same call.
func OrderCreate(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var body orders.CreateOrderInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, order)
	}
}

func orderList(svc orderService, logg *logger.Logger, list func(ctx context.Context, actor types.Actor) ([]models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		rows, err := list(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// OrderList returns the orders visible to the caller's role.
func OrderList(svc orderService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return orderList(nil, logg, nil)
	}
	return orderList(svc, logg, svc.ListForActor)
}

func OrderToday(svc orderService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return orderList(nil, logg, nil)
	}
	return orderList(svc, logg, svc.Today)
}

// OrderPending lists pending_supplier orders the calling supplier may take.
func OrderPending(svc orderService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return orderList(nil, logg, nil)
	}
	return orderList(svc, logg, func(ctx context.Context, actor types.Actor) ([]models.Order, error) {
		return svc.PendingForSupplier(ctx, actor.UserID)
	})
}

func OrderGet(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(r *http.Request, w http.ResponseWriter, actor types.Actor, id uuid.UUID) (any, bool) {
		order, err := svc.GetByID(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return nil, false
		}
		return order, true
	})
}

func OrderStatus(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(r *http.Request, w http.ResponseWriter, actor types.Actor, id uuid.UUID) (any, bool) {
		var body orders.StatusInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return nil, false
		}
		order, err := svc.UpdateStatus(r.Context(), actor, id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return nil, false
		}
		return order, true
	})
}

// OrderAccept lets a supplier take a pending order and auto-route its
// categories to eligible vendors.
func OrderAccept(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(r *http.Request, w http.ResponseWriter, actor types.Actor, id uuid.UUID) (any, bool) {
		result, err := svc.AcceptOrder(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return nil, false
		}
		return result, true
	})
}

func OrderAssignSupplier(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(r *http.Request, w http.ResponseWriter, actor types.Actor, id uuid.UUID) (any, bool) {
		var body orders.AssignSupplierInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return nil, false
		}
		order, err := svc.AssignSupplier(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return nil, false
		}
		return order, true
	})
}

func OrderAssignVendor(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(r *http.Request, w http.ResponseWriter, actor types.Actor, id uuid.UUID) (any, bool) {
		var body orders.AssignVendorInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return nil, false
		}
		order, err := svc.AssignVendor(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return nil, false
		}
		return order, true
	})
}
