package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/api/validators"
	"github.com/angelmondragon/supplychain-backend/internal/rides"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

type rideService interface {
	CreateRide(ctx context.Context, actor types.Actor, input rides.CreateRideInput) (*models.Ride, error)
	AcceptRide(ctx context.Context, rideID, transporterID uuid.UUID) (*models.Ride, error)
	UpdateRideStatus(ctx context.Context, rideID, transporterID uuid.UUID, status string) (*models.Ride, error)
	UpdateLocation(ctx context.Context, rideID, transporterID uuid.UUID, coords types.Coordinates) (*models.Ride, error)
	ListAvailable(ctx context.Context) ([]models.Ride, error)
	ListByTransporter(ctx context.Context, transporterID uuid.UUID) ([]models.Ride, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
}

type rideCall func(r *http.Request, w http.ResponseWriter, actor types.Actor, rideID uuid.UUID) (*models.Ride, error)

func rideAction(svc rideService, logg *logger.Logger, call rideCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ride service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "rideId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ride, err := call(r, w, actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ride)
	}
}

// RideCreate opens a delivery request for a packed order.
func RideCreate(svc rideService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ride service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var body rides.CreateRideInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ride, err := svc.CreateRide(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, ride)
	}
}

func RideAvailable(svc rideService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ride service"))
			return
		}
		rows, err := svc.ListAvailable(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func RideMine(svc rideService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ride service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.ListByTransporter(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func RideGet(svc rideService, logg *logger.Logger) http.HandlerFunc {
	return rideAction(svc, logg, func(r *http.Request, _ http.ResponseWriter, _ types.Actor, id uuid.UUID) (*models.Ride, error) {
		return svc.GetByID(r.Context(), id)
	})
}

func RideAccept(svc rideService, logg *logger.Logger) http.HandlerFunc {
	return rideAction(svc, logg, func(r *http.Request, _ http.ResponseWriter, actor types.Actor, id uuid.UUID) (*models.Ride, error) {
		return svc.AcceptRide(r.Context(), id, actor.UserID)
	})
}

func RideStatus(svc rideService, logg *logger.Logger) http.HandlerFunc {
	return rideAction(svc, logg, func(r *http.Request, w http.ResponseWriter, actor types.Actor, id uuid.UUID) (*models.Ride, error) {
		var body rides.StatusInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			return nil, err
		}
		return svc.UpdateRideStatus(r.Context(), id, actor.UserID, body.Status)
	})
}

// RideLocation records the transporter's live position.
func RideLocation(svc rideService, logg *logger.Logger) http.HandlerFunc {
	return rideAction(svc, logg, func(r *http.Request, w http.ResponseWriter, actor types.Actor, id uuid.UUID) (*models.Ride, error) {
		var body rides.LocationInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			return nil, err
		}
		return svc.UpdateLocation(r.Context(), id, actor.UserID, types.Coordinates{Lat: *body.Lat, Lng: *body.Lng})
	})
}
