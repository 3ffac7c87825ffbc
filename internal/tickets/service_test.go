package tickets

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/keylock"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

type stubRepo struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]models.SupportTicket
	clock   time.Time
}

func newStubRepo() *stubRepo {
	return &stubRepo{tickets: map[uuid.UUID]models.SupportTicket{}, clock: time.Now()}
}

func (r *stubRepo) WithTx(*gorm.DB) Repository { return r }

func (r *stubRepo) Create(_ context.Context, ticket *models.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	r.clock = r.clock.Add(time.Second)
	ticket.CreatedAt = r.clock
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	ticket.Responses = append([]models.TicketResponse(nil), ticket.Responses...)
	return &ticket, nil
}

func (r *stubRepo) Update(_ context.Context, ticket *models.SupportTicket, _ ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *stubRepo) sorted(keep func(models.SupportTicket) bool) []models.SupportTicket {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.SupportTicket{}
	for _, ticket := range r.tickets {
		if keep(ticket) {
			out = append(out, ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *stubRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.SupportTicket, error) {
	return r.sorted(func(t models.SupportTicket) bool { return t.UserID == userID }), nil
}

func (r *stubRepo) ListAll(_ context.Context, status *enums.TicketStatus) ([]models.SupportTicket, error) {
	return r.sorted(func(t models.SupportTicket) bool { return status == nil || t.Status == *status }), nil
}

type stubUsers map[uuid.UUID]*models.User

func (s stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestService(t *testing.T) (Service, *models.User) {
	t.Helper()
	owner := &models.User{ID: uuid.New(), Name: "Spice Kitchen", Role: enums.RoleKitchen}
	svc, err := NewService(ServiceParams{
		Repo:   newStubRepo(),
		Users:  stubUsers{owner.ID: owner},
		Locker: keylock.NewLocal(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, owner
}

func owned(u *models.User) types.Actor {
	return types.Actor{UserID: u.ID, Role: u.Role}
}

var admin = types.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

func TestCreateTicketDefaults(t *testing.T) {
	svc, owner := newTestService(t)

	ticket, err := svc.Create(context.Background(), owned(owner), CreateInput{Subject: " Late delivery ", Message: "Order never arrived"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Status != enums.TicketStatusOpen {
		t.Fatalf("expected open, got %s", ticket.Status)
	}
	if ticket.Priority != enums.TicketPriorityMedium {
		t.Fatalf("expected medium priority, got %s", ticket.Priority)
	}
	if ticket.Subject != "Late delivery" || ticket.UserName != "Spice Kitchen" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}

	if _, err := svc.Create(context.Background(), owned(owner), CreateInput{Subject: "x", Message: "y", Priority: "urgent"}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), owned(owner), CreateInput{Subject: "x"}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), types.Actor{UserID: uuid.New()}, CreateInput{Subject: "x", Message: "y"}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddResponseAdvancesOpenTicket(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()
	ticket, err := svc.Create(ctx, owned(owner), CreateInput{Subject: "Invoice", Message: "Wrong tax", Priority: "high"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.AddResponse(ctx, admin, ticket.ID, ResponseInput{Message: "Looking into it"})
	if err != nil {
		t.Fatalf("admin response: %v", err)
	}
	if updated.Status != enums.TicketStatusInProgress {
		t.Fatalf("expected in_progress, got %s", updated.Status)
	}
	if len(updated.Responses) != 1 || updated.Responses[0].UserName != "Support Team" {
		t.Fatalf("unexpected responses %+v", updated.Responses)
	}

	updated, err = svc.AddResponse(ctx, owned(owner), ticket.ID, ResponseInput{Message: "Thanks"})
	if err != nil {
		t.Fatalf("owner response: %v", err)
	}
	if len(updated.Responses) != 2 || updated.Responses[1].UserName != "Spice Kitchen" {
		t.Fatalf("unexpected responses %+v", updated.Responses)
	}
	if updated.Responses[0].Message != "Looking into it" {
		t.Fatal("earlier response changed")
	}

	stranger := types.Actor{UserID: uuid.New(), Role: enums.RoleSupplier}
	if _, err := svc.AddResponse(ctx, stranger, ticket.ID, ResponseInput{Message: "hi"}); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.AddResponse(ctx, owned(owner), uuid.New(), ResponseInput{Message: "hi"}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClosedTicketRejectsResponses(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()
	ticket, err := svc.Create(ctx, owned(owner), CreateInput{Subject: "Login", Message: "Cannot log in"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resolved, err := svc.UpdateStatus(ctx, ticket.ID, "resolved")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != enums.TicketStatusResolved {
		t.Fatalf("expected resolved, got %s", resolved.Status)
	}
	reply, err := svc.AddResponse(ctx, owned(owner), ticket.ID, ResponseInput{Message: "Still broken"})
	if err != nil {
		t.Fatalf("reply on resolved ticket: %v", err)
	}
	if reply.Status != enums.TicketStatusResolved {
		t.Fatalf("reply must not move a resolved ticket, got %s", reply.Status)
	}

	if _, err := svc.UpdateStatus(ctx, ticket.ID, "closed"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.AddResponse(ctx, owned(owner), ticket.ID, ResponseInput{Message: "hello?"}); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, ticket.ID, "archived"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListingAndAccess(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()
	first, _ := svc.Create(ctx, owned(owner), CreateInput{Subject: "one", Message: "a"})
	second, _ := svc.Create(ctx, owned(owner), CreateInput{Subject: "two", Message: "b"})
	if _, err := svc.UpdateStatus(ctx, first.ID, "closed"); err != nil {
		t.Fatalf("close: %v", err)
	}

	mine, err := svc.ListByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", mine)
	}

	closed, err := svc.ListAll(ctx, "closed")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(closed) != 1 || closed[0].ID != first.ID {
		t.Fatalf("unexpected closed tickets %+v", closed)
	}
	if _, err := svc.ListAll(ctx, "pending"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := svc.GetByID(ctx, admin, first.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := svc.GetByID(ctx, types.Actor{UserID: uuid.New(), Role: enums.RoleVendor}, first.ID); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
