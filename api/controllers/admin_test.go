package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/internal/snapshots"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
)

type stubAdminUsers struct {
	setActiveFn func(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
	reviewFn    func(ctx context.Context, id uuid.UUID, decision string) (*models.User, error)
	listFn      func(ctx context.Context, params users.ListParams) (*users.ListResult, error)
}

func (s *stubAdminUsers) AdminUpdate(_ context.Context, id uuid.UUID, _ users.AdminUpdate) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (s *stubAdminUsers) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	return s.setActiveFn(ctx, id, active)
}

func (s *stubAdminUsers) ReviewVerification(ctx context.Context, id uuid.UUID, decision string) (*models.User, error) {
	return s.reviewFn(ctx, id, decision)
}

func (s *stubAdminUsers) List(ctx context.Context, params users.ListParams) (*users.ListResult, error) {
	return s.listFn(ctx, params)
}

func TestAdminSetActive(t *testing.T) {
	userID := uuid.New()
	for _, active := range []bool{true, false} {
		svc := &stubAdminUsers{
			setActiveFn: func(_ context.Context, id uuid.UUID, got bool) (*models.User, error) {
				if id != userID || got != active {
					t.Fatalf("unexpected call %s %v", id, got)
				}
				return &models.User{ID: id, IsActive: got}, nil
			},
		}
		req := withParam(newRequest(http.MethodPost, "/", ""), "userId", userID.String())
		resp := httptest.NewRecorder()
		AdminSetActive(svc, active, testLogger())(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
		var dto users.UserDTO
		decodeData(t, resp, &dto)
		if dto.IsActive != active {
			t.Fatalf("expected active=%v", active)
		}
	}
}

func TestAdminReviewVerificationRejectsPending(t *testing.T) {
	svc := &stubAdminUsers{
		reviewFn: func(context.Context, uuid.UUID, string) (*models.User, error) {
			t.Fatal("review should not be called")
			return nil, nil
		},
	}
	req := withParam(newRequest(http.MethodPost, "/", `{"status":"pending"}`), "userId", uuid.NewString())
	resp := httptest.NewRecorder()
	AdminReviewVerification(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminReviewVerificationNoSubmission(t *testing.T) {
	svc := &stubAdminUsers{
		reviewFn: func(_ context.Context, _ uuid.UUID, decision string) (*models.User, error) {
			if decision != "verified" {
				t.Fatalf("unexpected decision %s", decision)
			}
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no verification submitted")
		},
	}
	req := withParam(newRequest(http.MethodPost, "/", `{"status":"verified"}`), "userId", uuid.NewString())
	resp := httptest.NewRecorder()
	AdminReviewVerification(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminUsersPaging(t *testing.T) {
	svc := &stubAdminUsers{
		listFn: func(_ context.Context, params users.ListParams) (*users.ListResult, error) {
			if params.Role != "vendor" || params.Limit != 10 || params.Cursor != "c1" {
				t.Fatalf("unexpected params %+v", params)
			}
			return &users.ListResult{Items: []*users.UserDTO{{Role: enums.RoleVendor}}, Cursor: "c2"}, nil
		},
	}
	resp := httptest.NewRecorder()
	AdminUsers(svc, testLogger())(resp, newRequest(http.MethodGet, "/api/v1/admin/users?role=vendor&limit=10&cursor=c1", ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var result users.ListResult
	decodeData(t, resp, &result)
	if result.Cursor != "c2" || len(result.Items) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

type stubSnapshots struct {
	doc      *snapshots.Document
	flushErr error
	flushed  bool
}

func (s *stubSnapshots) Export(context.Context) (*snapshots.Document, error) { return s.doc, nil }

func (s *stubSnapshots) Flush(context.Context) error {
	s.flushed = true
	return s.flushErr
}

func TestAdminSnapshotFlush(t *testing.T) {
	svc := &stubSnapshots{}
	resp := httptest.NewRecorder()
	AdminSnapshotFlush(svc, testLogger())(resp, newRequest(http.MethodPost, "/", ""))
	if resp.Code != http.StatusOK || !svc.flushed {
		t.Fatalf("expected flush, got %d", resp.Code)
	}
}

func TestAdminSnapshotFlushDisabled(t *testing.T) {
	svc := &stubSnapshots{flushErr: pkgerrors.New(pkgerrors.CodeStateConflict, "snapshot persistence disabled")}
	resp := httptest.NewRecorder()
	AdminSnapshotFlush(svc, testLogger())(resp, newRequest(http.MethodPost, "/", ""))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminSnapshotExport(t *testing.T) {
	svc := &stubSnapshots{doc: &snapshots.Document{Users: []models.User{{Name: "Admin User", PasswordHash: "$2a$10$secrethash"}}}}
	resp := httptest.NewRecorder()
	AdminSnapshot(svc, testLogger())(resp, newRequest(http.MethodGet, "/", ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "secrethash") {
		t.Fatalf("password hash leaked in export: %s", resp.Body.String())
	}
	var doc snapshots.Document
	decodeData(t, resp, &doc)
	if len(doc.Users) != 1 || doc.Users[0].Name != "Admin User" || doc.Users[0].PasswordHash != "" {
		t.Fatalf("unexpected exported users %+v", doc.Users)
	}
	if svc.doc.Users[0].PasswordHash != "$2a$10$secrethash" {
		t.Fatal("redaction must not modify the exported document")
	}
}

func TestAdminSnapshotUnexpectedError(t *testing.T) {
	svc := &stubSnapshots{flushErr: errors.New("disk full")}
	resp := httptest.NewRecorder()
	AdminSnapshotFlush(svc, testLogger())(resp, newRequest(http.MethodPost, "/", ""))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
