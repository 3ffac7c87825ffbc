package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service creates notifications for workflow events and serves the
// per-user read side.
type Service interface {
	Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, msg Message) error
	NotifyMany(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, msg Message) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Message is the content of one notification.
type Message struct {
	Title     string
	Body      string
	Type      enums.NotificationType
	ActionURL string
}

type sentCounter interface {
	NotificationSent(kind string)
}

type service struct {
	repo    Repository
	metrics sentCounter
	now     func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies. metrics may be nil.
func NewService(repo Repository, metrics sentCounter) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{
		repo:    repo,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, msg Message) error {
	return s.NotifyMany(ctx, tx, []uuid.UUID{userID}, msg)
}

// NotifyMany writes one row per distinct recipient inside tx when given.
func (s *service) NotifyMany(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, msg Message) error {
	msg, err := normalizeMessage(msg)
	if err != nil {
		return err
	}

	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	rows := make([]*models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		row := &models.Notification{
			UserID:  id,
			Title:   msg.Title,
			Message: msg.Body,
			Type:    msg.Type,
		}
		if msg.ActionURL != "" {
			url := msg.ActionURL
			row.ActionURL = &url
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.repo.WithTx(tx).Create(ctx, rows...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notifications")
	}
	if s.metrics != nil {
		for range rows {
			s.metrics.NotificationSent(string(msg.Type))
		}
	}
	return nil
}

func normalizeMessage(msg Message) (Message, error) {
	msg.Title = strings.TrimSpace(msg.Title)
	msg.Body = strings.TrimSpace(msg.Body)
	if msg.Title == "" || msg.Body == "" {
		return msg, pkgerrors.New(pkgerrors.CodeValidation, "notification title and message are required")
	}
	if msg.Type == "" {
		msg.Type = enums.NotificationTypeInfo
	}
	if !msg.Type.IsValid() {
		return msg, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	return msg, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	result := &ListResult{Items: rows}
	if result.Items == nil {
		result.Items = []models.Notification{}
	}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// UnreadCount is recomputed from the stored rows on every call.
func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// MarkRead succeeds for notifications that are already read.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
