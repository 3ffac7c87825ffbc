package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/api/validators"
	"github.com/angelmondragon/supplychain-backend/internal/agreements"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

type agreementService interface {
	Establish(ctx context.Context, requesterID uuid.UUID, target string) (*agreements.EstablishResult, error)
	ListPartners(ctx context.Context, userID uuid.UUID, role string) ([]users.PartnerDTO, error)
}

type establishRequest struct {
	// Target accepts the partner's public unique id or internal id.
	Target string `json:"targetUserId" validate:"required,max=64"`
}

func AgreementCreate(svc agreementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("agreement service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var body establishRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Establish(r.Context(), actor.UserID, body.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}

// AgreementList lists the caller's partners, optionally filtered by ?role=.
func AgreementList(svc agreementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("agreement service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		partners, err := svc.ListPartners(r.Context(), actor.UserID, validators.QueryString(r, "role", 32))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partners)
	}
}
