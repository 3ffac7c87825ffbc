package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/internal/notifications"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
	unread        int64
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (s *testNotificationsService) UnreadCount(context.Context, uuid.UUID) (int64, error) {
	return s.unread, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, userID, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

func TestNotificationListParsesQuery(t *testing.T) {
	actor := kitchenActor()
	svc := &testNotificationsService{
		listFn: func(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			if params.UserID != actor.UserID || params.Limit != 5 || !params.UnreadOnly || params.Cursor != "abc" {
				t.Fatalf("unexpected params %+v", params)
			}
			return &notifications.ListResult{Items: []models.Notification{{Title: "Order Accepted"}}, Cursor: "next"}, nil
		},
	}
	req := asActor(newRequest(http.MethodGet, "/api/v1/notifications?limit=5&unreadOnly=true&cursor=abc", ""), actor)
	resp := httptest.NewRecorder()
	NotificationList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var result notifications.ListResult
	decodeData(t, resp, &result)
	if result.Cursor != "next" || len(result.Items) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestNotificationListRejectsLimit(t *testing.T) {
	req := asActor(newRequest(http.MethodGet, "/api/v1/notifications?limit=500", ""), kitchenActor())
	resp := httptest.NewRecorder()
	NotificationList(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	actor := kitchenActor()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(_ context.Context, uid, nid uuid.UUID) error {
			called = true
			if uid != actor.UserID || nid != notificationID {
				t.Fatalf("unexpected ids %s %s", uid, nid)
			}
			return nil
		},
	}
	req := withParam(asActor(newRequest(http.MethodPost, "/", ""), actor), "notificationId", notificationID.String())
	resp := httptest.NewRecorder()
	NotificationMarkRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var body map[string]bool
	decodeData(t, resp, &body)
	if !body["read"] {
		t.Fatal("response missing read flag")
	}
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}
	req := withParam(asActor(newRequest(http.MethodPost, "/", ""), kitchenActor()), "notificationId", uuid.NewString())
	resp := httptest.NewRecorder()
	NotificationMarkRead(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := &testNotificationsService{
		markAllReadFn: func(context.Context, uuid.UUID) (int64, error) { return 3, nil },
	}
	resp := httptest.NewRecorder()
	NotificationMarkAllRead(svc, testLogger())(resp, asActor(newRequest(http.MethodPost, "/", ""), kitchenActor()))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body map[string]int64
	decodeData(t, resp, &body)
	if body["updated"] != 3 {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestNotificationUnreadCount(t *testing.T) {
	resp := httptest.NewRecorder()
	NotificationUnreadCount(&testNotificationsService{unread: 4}, testLogger())(resp, asActor(newRequest(http.MethodGet, "/", ""), kitchenActor()))
	var body map[string]int64
	decodeData(t, resp, &body)
	if body["count"] != 4 {
		t.Fatalf("unexpected count %v", body)
	}
}
