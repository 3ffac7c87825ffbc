package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/api/validators"
	"github.com/angelmondragon/supplychain-backend/internal/invoices"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

type invoiceService interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
	GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Invoice, error)
	WeeklyStats(ctx context.Context, userID uuid.UUID) (invoices.Stats, error)
	MonthlyStats(ctx context.Context, userID uuid.UUID) (invoices.Stats, error)
}

func InvoiceList(svc invoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("invoice service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.ListByUser(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// InvoiceStats reports the caller's invoice totals for the last 7 and 30
// days.
func InvoiceStats(svc invoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("invoice service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		weekly, err := svc.WeeklyStats(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		monthly, err := svc.MonthlyStats(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoices.StatsResponse{Weekly: weekly, Monthly: monthly})
	}
}

func InvoiceGet(svc invoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("invoice service"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.GetByID(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}
