// Package tickets runs the support desk: users open tickets, users and
// operators reply on the thread, operators move the status.
package tickets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/keylock"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

const (
	msgTicketNotFound = "Ticket not found"
	supportTeamName   = "Support Team"
)

type Service interface {
	Create(ctx context.Context, actor types.Actor, input CreateInput) (*models.SupportTicket, error)
	AddResponse(ctx context.Context, actor types.Actor, ticketID uuid.UUID, input ResponseInput) (*models.SupportTicket, error)
	UpdateStatus(ctx context.Context, ticketID uuid.UUID, status string) (*models.SupportTicket, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SupportTicket, error)
	ListAll(ctx context.Context, status string) ([]models.SupportTicket, error)
	GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.SupportTicket, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ServiceParams bundles the ticket service dependencies.
type ServiceParams struct {
	Repo   Repository
	Users  userLookup
	Locker keylock.Locker
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	users  userLookup
	locker keylock.Locker
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tickets repository required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user lookup required")
	case params.Locker == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key locker required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:   params.Repo,
		users:  params.Users,
		locker: params.Locker,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, actor types.Actor, input CreateInput) (*models.SupportTicket, error) {
	subject := strings.TrimSpace(input.Subject)
	message := strings.TrimSpace(input.Message)
	if subject == "" || message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and message are required")
	}
	priority, err := enums.ParseTicketPriority(strings.TrimSpace(input.Priority))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
	}
	user, err := s.author(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	ticket := &models.SupportTicket{
		UserID:    user.ID,
		UserName:  user.Name,
		Subject:   subject,
		Message:   message,
		Status:    enums.TicketStatusOpen,
		Priority:  priority,
		Responses: []models.TicketResponse{},
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ticket")
	}
	s.logg.Info(s.logg.WithField(ctx, "ticket_id", ticket.ID.String()), "ticket opened")
	return ticket, nil
}

// AddResponse appends a reply from the ticket owner or an operator. The
// first reply moves an open ticket to in_progress; closed tickets take no
// replies.
func (s *service) AddResponse(ctx context.Context, actor types.Actor, ticketID uuid.UUID, input ResponseInput) (*models.SupportTicket, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	release, err := s.locker.Lock(ctx, keylock.TicketKey(ticketID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire ticket lock")
	}
	defer release()

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && ticket.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "ticket belongs to another user")
	}
	if ticket.Status == enums.TicketStatusClosed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
	}

	name := supportTeamName
	if !actor.IsAdmin() {
		name = ticket.UserName
	}
	ticket.Responses = append(ticket.Responses, models.TicketResponse{
		ID:        uuid.New(),
		TicketID:  ticket.ID,
		UserID:    actor.UserID,
		UserName:  name,
		Message:   message,
		CreatedAt: s.now(),
	})
	columns := []string{"responses"}
	if ticket.Status == enums.TicketStatusOpen {
		ticket.Status = enums.TicketStatusInProgress
		columns = append(columns, "status")
	}
	if err := s.repo.Update(ctx, ticket, columns...); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ticket response")
	}
	return ticket, nil
}

// UpdateStatus lets an operator set any status.
func (s *service) UpdateStatus(ctx context.Context, ticketID uuid.UUID, status string) (*models.SupportTicket, error) {
	next, err := enums.ParseTicketStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket status")
	}

	release, err := s.locker.Lock(ctx, keylock.TicketKey(ticketID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire ticket lock")
	}
	defer release()

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == next {
		return ticket, nil
	}
	ticket.Status = next
	if err := s.repo.Update(ctx, ticket, "status"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket status")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"ticket_id": ticket.ID.String(), "status": next}), "ticket status changed")
	return ticket, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SupportTicket, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return rows, nil
}

// ListAll returns every ticket, optionally only those in status.
func (s *service) ListAll(ctx context.Context, status string) ([]models.SupportTicket, error) {
	var filter *enums.TicketStatus
	if status = strings.TrimSpace(status); status != "" {
		parsed, err := enums.ParseTicketStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket status")
		}
		filter = &parsed
	}
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return rows, nil
}

func (s *service) GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.SupportTicket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && ticket.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "ticket belongs to another user")
	}
	return ticket, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgTicketNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return ticket, nil
}

func (s *service) author(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
