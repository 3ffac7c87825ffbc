package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/internal/orders"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

type stubOrderService struct {
	createFn       func(ctx context.Context, actor types.Actor, input orders.CreateOrderInput) (*models.Order, error)
	updateStatusFn func(ctx context.Context, actor types.Actor, id uuid.UUID, status string) (*models.Order, error)
	acceptFn       func(ctx context.Context, actor types.Actor, id uuid.UUID) (*orders.AcceptResult, error)
	assignVendorFn func(ctx context.Context, actor types.Actor, id uuid.UUID, input orders.AssignVendorInput) (*models.Order, error)
	listFn         func(ctx context.Context, actor types.Actor) ([]models.Order, error)
	pendingFn      func(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error)
}

func (s *stubOrderService) Create(ctx context.Context, actor types.Actor, input orders.CreateOrderInput) (*models.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, actor, input)
	}
	return &models.Order{}, nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, actor types.Actor, id uuid.UUID, status string) (*models.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, actor, id, status)
	}
	return &models.Order{}, nil
}

func (s *stubOrderService) AssignSupplier(context.Context, types.Actor, uuid.UUID, orders.AssignSupplierInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (s *stubOrderService) AcceptOrder(ctx context.Context, actor types.Actor, id uuid.UUID) (*orders.AcceptResult, error) {
	if s.acceptFn != nil {
		return s.acceptFn(ctx, actor, id)
	}
	return &orders.AcceptResult{}, nil
}

func (s *stubOrderService) AssignVendor(ctx context.Context, actor types.Actor, id uuid.UUID, input orders.AssignVendorInput) (*models.Order, error) {
	if s.assignVendorFn != nil {
		return s.assignVendorFn(ctx, actor, id, input)
	}
	return &models.Order{}, nil
}

func (s *stubOrderService) GetByID(context.Context, types.Actor, uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
}

func (s *stubOrderService) ListForActor(ctx context.Context, actor types.Actor) ([]models.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, actor)
	}
	return nil, nil
}

func (s *stubOrderService) PendingForSupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error) {
	if s.pendingFn != nil {
		return s.pendingFn(ctx, supplierID)
	}
	return nil, nil
}

func (s *stubOrderService) Today(context.Context, types.Actor) ([]models.Order, error) {
	return []models.Order{}, nil
}

func kitchenActor() types.Actor {
	return types.Actor{UserID: uuid.New(), Role: enums.RoleKitchen}
}

func TestOrderCreatePassesItems(t *testing.T) {
	actor := kitchenActor()
	svc := &stubOrderService{
		createFn: func(_ context.Context, got types.Actor, input orders.CreateOrderInput) (*models.Order, error) {
			if got.UserID != actor.UserID {
				t.Fatalf("unexpected actor %s", got.UserID)
			}
			if len(input.Items) != 2 || input.Items[0].ProductID != "v1" {
				t.Fatalf("unexpected items %+v", input.Items)
			}
			if !input.Items[1].Quantity.Equal(decimal.NewFromInt(3)) {
				t.Fatalf("unexpected quantity %s", input.Items[1].Quantity)
			}
			return &models.Order{ID: uuid.New(), OrderNumber: "ORD-1", Status: enums.OrderStatusPendingSupplier}, nil
		},
	}

	req := asActor(newRequest(http.MethodPost, "/api/v1/orders", `{"items":[{"productId":"v1","quantity":2},{"productId":"d1","quantity":3}]}`), actor)
	resp := httptest.NewRecorder()
	OrderCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var order models.Order
	decodeData(t, resp, &order)
	if order.OrderNumber != "ORD-1" || order.Status != enums.OrderStatusPendingSupplier {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestOrderCreateRejectsEmptyItems(t *testing.T) {
	called := false
	svc := &stubOrderService{createFn: func(context.Context, types.Actor, orders.CreateOrderInput) (*models.Order, error) {
		called = true
		return nil, nil
	}}

	req := asActor(newRequest(http.MethodPost, "/api/v1/orders", `{"items":[]}`), kitchenActor())
	resp := httptest.NewRecorder()
	OrderCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("service should not be called")
	}
}

func TestOrderCreateRequiresActor(t *testing.T) {
	resp := httptest.NewRecorder()
	OrderCreate(&stubOrderService{}, testLogger())(resp, newRequest(http.MethodPost, "/api/v1/orders", `{"items":[]}`))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrderStatusMapsStateConflict(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{
		updateStatusFn: func(_ context.Context, _ types.Actor, id uuid.UUID, status string) (*models.Order, error) {
			if id != orderID || status != "completed" {
				t.Fatalf("unexpected call %s %s", id, status)
			}
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from pending_supplier to completed")
		},
	}

	req := asActor(newRequest(http.MethodPost, "/", `{"status":"completed"}`), kitchenActor())
	req = withParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	OrderStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestOrderStatusRejectsBadID(t *testing.T) {
	req := withParam(asActor(newRequest(http.MethodPost, "/", `{"status":"cancelled"}`), kitchenActor()), "orderId", "nope")
	resp := httptest.NewRecorder()
	OrderStatus(&stubOrderService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderAcceptReturnsAssignments(t *testing.T) {
	supplier := types.Actor{UserID: uuid.New(), Role: enums.RoleSupplier}
	vendorID := uuid.New()
	svc := &stubOrderService{
		acceptFn: func(_ context.Context, actor types.Actor, _ uuid.UUID) (*orders.AcceptResult, error) {
			if actor.Role != enums.RoleSupplier {
				t.Fatalf("unexpected role %s", actor.Role)
			}
			return &orders.AcceptResult{
				Order:      &models.Order{Status: enums.OrderStatusVendorAssigned},
				Assigned:   []orders.CategoryAssignment{{Category: enums.CategoryVegetables, VendorID: vendorID}},
				Unassigned: []enums.Category{enums.CategoryMeat},
			}, nil
		},
	}

	req := withParam(asActor(newRequest(http.MethodPost, "/", ""), supplier), "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	OrderAccept(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var result orders.AcceptResult
	decodeData(t, resp, &result)
	if len(result.Assigned) != 1 || result.Assigned[0].VendorID != vendorID {
		t.Fatalf("unexpected assignments %+v", result.Assigned)
	}
	if len(result.Unassigned) != 1 || result.Unassigned[0] != enums.CategoryMeat {
		t.Fatalf("unexpected unassigned %+v", result.Unassigned)
	}
	if result.Order == nil || result.Order.Status != enums.OrderStatusVendorAssigned {
		t.Fatalf("unexpected order %+v", result.Order)
	}
}

func TestOrderAssignVendorDecodesBody(t *testing.T) {
	vendorID := uuid.New()
	svc := &stubOrderService{
		assignVendorFn: func(_ context.Context, _ types.Actor, _ uuid.UUID, input orders.AssignVendorInput) (*models.Order, error) {
			if input.Category != "fruits" || input.VendorID != vendorID {
				t.Fatalf("unexpected input %+v", input)
			}
			return &models.Order{}, nil
		},
	}
	body := `{"category":"fruits","vendorId":"` + vendorID.String() + `"}`
	req := withParam(asActor(newRequest(http.MethodPost, "/", body), types.Actor{UserID: uuid.New(), Role: enums.RoleSupplier}), "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	OrderAssignVendor(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestOrderPendingUsesCaller(t *testing.T) {
	supplier := types.Actor{UserID: uuid.New(), Role: enums.RoleSupplier}
	svc := &stubOrderService{
		pendingFn: func(_ context.Context, id uuid.UUID) ([]models.Order, error) {
			if id != supplier.UserID {
				t.Fatalf("unexpected supplier %s", id)
			}
			return []models.Order{{OrderNumber: "ORD-9"}}, nil
		},
	}
	resp := httptest.NewRecorder()
	OrderPending(svc, testLogger())(resp, asActor(newRequest(http.MethodGet, "/", ""), supplier))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var rows []models.Order
	decodeData(t, resp, &rows)
	if len(rows) != 1 || rows[0].OrderNumber != "ORD-9" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestOrderGetNotFound(t *testing.T) {
	req := withParam(asActor(newRequest(http.MethodGet, "/", ""), kitchenActor()), "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	OrderGet(&stubOrderService{}, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderListNilService(t *testing.T) {
	resp := httptest.NewRecorder()
	OrderList(nil, testLogger())(resp, asActor(newRequest(http.MethodGet, "/", ""), kitchenActor()))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
