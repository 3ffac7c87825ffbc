package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/api/validators"
	"github.com/angelmondragon/supplychain-backend/internal/invoices"
	"github.com/angelmondragon/supplychain-backend/internal/snapshots"
	"github.com/angelmondragon/supplychain-backend/internal/tickets"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

type adminUserService interface {
	AdminUpdate(ctx context.Context, id uuid.UUID, input users.AdminUpdate) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
	ReviewVerification(ctx context.Context, id uuid.UUID, decision string) (*models.User, error)
	List(ctx context.Context, params users.ListParams) (*users.ListResult, error)
}

type adminTicketService interface {
	ListAll(ctx context.Context, status string) ([]models.SupportTicket, error)
	UpdateStatus(ctx context.Context, ticketID uuid.UUID, status string) (*models.SupportTicket, error)
}

type adminInvoiceService interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Invoice, error)
}

type snapshotService interface {
	Export(ctx context.Context) (*snapshots.Document, error)
	Flush(ctx context.Context) error
}

type verificationReview struct {
	Status string `json:"status" validate:"required,oneof=verified rejected"`
}

const (
	defaultUserPageSize = 25
	maxUserPageSize     = 100
)

// AdminUsers pages every account newest first, optionally by ?role=.
func AdminUsers(svc adminUserService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("user service"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultUserPageSize, 1, maxUserPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), users.ListParams{
			Role:   validators.QueryString(r, "role", 32),
			Limit:  limit,
			Cursor: validators.QueryString(r, "cursor", 256),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func adminUserAction(svc adminUserService, logg *logger.Logger, call func(r *http.Request, w http.ResponseWriter, id uuid.UUID) (*models.User, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("user service"))
			return
		}
		id, err := validators.PathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := call(r, w, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

func AdminUpdateUser(svc adminUserService, logg *logger.Logger) http.HandlerFunc {
	return adminUserAction(svc, logg, func(r *http.Request, w http.ResponseWriter, id uuid.UUID) (*models.User, error) {
		var body users.AdminUpdate
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			return nil, err
		}
		return svc.AdminUpdate(r.Context(), id, body)
	})
}

// AdminSetActive returns the activate or deactivate handler.
func AdminSetActive(svc adminUserService, active bool, logg *logger.Logger) http.HandlerFunc {
	return adminUserAction(svc, logg, func(r *http.Request, _ http.ResponseWriter, id uuid.UUID) (*models.User, error) {
		return svc.SetActive(r.Context(), id, active)
	})
}

func AdminReviewVerification(svc adminUserService, logg *logger.Logger) http.HandlerFunc {
	return adminUserAction(svc, logg, func(r *http.Request, w http.ResponseWriter, id uuid.UUID) (*models.User, error) {
		var body verificationReview
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			return nil, err
		}
		return svc.ReviewVerification(r.Context(), id, body.Status)
	})
}

// AdminTickets lists every ticket, optionally narrowed by ?status=.
func AdminTickets(svc adminTicketService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ticket service"))
			return
		}
		rows, err := svc.ListAll(r.Context(), validators.QueryString(r, "status", 32))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func AdminTicketStatus(svc adminTicketService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ticket service"))
			return
		}
		id, err := validators.PathUUID(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body tickets.StatusInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.UpdateStatus(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

func AdminInvoiceStatus(svc adminInvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("invoice service"))
			return
		}
		id, err := validators.PathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body invoices.StatusUpdate
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.UpdateStatus(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// AdminSnapshot returns the application state document without password
// hashes.
func AdminSnapshot(svc snapshotService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("snapshot service"))
			return
		}
		doc, err := svc.Export(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc.Redacted())
	}
}

func AdminSnapshotFlush(svc snapshotService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("snapshot service"))
			return
		}
		if err := svc.Flush(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(r.Context(), "snapshot flushed on request")
		responses.WriteSuccess(w, map[string]string{"status": "flushed"})
	}
}
