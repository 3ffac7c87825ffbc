package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/notifications"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/idgen"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

const (
	dueAfter     = 30 * 24 * time.Hour
	weekWindow   = 7 * 24 * time.Hour
	monthWindow  = 30 * 24 * time.Hour
	numberTries  = 5
	invoiceTitle = "New Invoice Generated"
)

// TaxRate is applied to the subtotal of every invoice.
var TaxRate = decimal.RequireFromString("0.18")

// Service materialises invoices for completed orders and serves them back.
type Service interface {
	GenerateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, recipients []Recipient) ([]models.Invoice, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Invoice, error)
	GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Invoice, error)
	WeeklyStats(ctx context.Context, userID uuid.UUID) (Stats, error)
	MonthlyStats(ctx context.Context, userID uuid.UUID) (Stats, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Invoice, error)
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, msg notifications.Message) error
}

type generatedCounter interface {
	InvoiceGenerated(role string)
}

// ServiceParams bundles the invoice service dependencies. Metrics may be nil.
type ServiceParams struct {
	Repo     Repository
	Notifier notifier
	Numbers  idgen.Generator
	Metrics  generatedCounter
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	notifier notifier
	numbers  idgen.Generator
	metrics  generatedCounter
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invoice repository required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		notifier: params.Notifier,
		numbers:  params.Numbers,
		metrics:  params.Metrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Totals computes subtotal, tax and total without rounding.
func Totals(items []models.OrderItem) (subtotal, tax, total decimal.Decimal) {
	subtotal = models.SumItems(items)
	tax = subtotal.Mul(TaxRate)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}

// GenerateForOrder writes one draft invoice per recipient inside tx and
// notifies each one. A recipient that already holds an invoice for the
// order is skipped.
func (s *service) GenerateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, recipients []Recipient) ([]models.Invoice, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	repo := s.repo.WithTx(tx)
	now := s.now()
	subtotal, tax, total := Totals(order.Items)

	created := make([]models.Invoice, 0, len(recipients))
	for _, recipient := range recipients {
		exists, err := repo.Exists(ctx, order.ID, recipient.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing invoice")
		}
		if exists {
			continue
		}

		number, err := s.freeNumber(ctx, repo)
		if err != nil {
			return nil, err
		}
		invoice := models.Invoice{
			InvoiceNumber: number,
			OrderID:       order.ID,
			UserID:        recipient.UserID,
			UserRole:      recipient.Role,
			Items:         append([]models.OrderItem(nil), order.Items...),
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         total,
			Status:        enums.InvoiceStatusDraft,
			DueDate:       now.Add(dueAfter),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.Create(ctx, &invoice); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}

		if err := s.notifier.Notify(ctx, tx, recipient.UserID, notifications.Message{
			Title: invoiceTitle,
			Body:  fmt.Sprintf("Invoice #%s has been generated for your order", invoice.InvoiceNumber),
			Type:  enums.NotificationTypeInfo,
		}); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.InvoiceGenerated(string(recipient.Role))
		}
		created = append(created, invoice)
	}

	if len(created) > 0 {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "invoices", len(created)), "invoices generated")
	}
	return created, nil
}

func (s *service) freeNumber(ctx context.Context, repo Repository) (string, error) {
	for attempt := 0; attempt < numberTries; attempt++ {
		number, err := s.numbers.InvoiceNumber()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invoice number")
		}
		taken, err := repo.NumberTaken(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check invoice number")
		}
		if !taken {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate invoice number")
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return rows, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Invoice, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order invoices")
	}
	return rows, nil
}

// GetByID returns the invoice to its owner or an admin.
func (s *service) GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && invoice.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invoice belongs to another user")
	}
	return invoice, nil
}

func (s *service) WeeklyStats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	return s.statsSince(ctx, userID, s.now().Add(-weekWindow))
}

func (s *service) MonthlyStats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	return s.statsSince(ctx, userID, s.now().Add(-monthWindow))
}

func (s *service) statsSince(ctx context.Context, userID uuid.UUID, since time.Time) (Stats, error) {
	rows, err := s.repo.ListCreatedSince(ctx, userID, since)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice stats")
	}
	stats := Stats{Total: decimal.Zero, Count: len(rows)}
	for _, row := range rows {
		stats.Total = stats.Total.Add(row.Total)
	}
	return stats, nil
}

// UpdateStatus moves an invoice along draft -> sent -> paid. Setting the
// current status again is a no-op.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Invoice, error) {
	next, err := enums.ParseInvoiceStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice status")
	}
	invoice, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == next {
		return invoice, nil
	}
	if !invoice.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice status transition not allowed").
			WithDetails(map[string]string{"from": string(invoice.Status), "to": string(next)})
	}

	invoice.Status = next
	columns := []string{"status"}
	if next == enums.InvoiceStatusPaid {
		now := s.now()
		invoice.PaidAt = &now
		columns = append(columns, "paid_at")
	}
	if err := s.repo.Update(ctx, invoice, columns...); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
	}
	return invoice, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}
