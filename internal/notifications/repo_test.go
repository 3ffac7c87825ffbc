package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/pkg/db/dbtest"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

func TestRepositoryListPagesNewestFirst(t *testing.T) {
	conn := dbtest.OpenGorm(t)
	user := dbtest.CreateUser(t, conn, enums.RoleKitchen)
	other := dbtest.CreateUser(t, conn, enums.RoleSupplier)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	var created []*models.Notification
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			UserID:    user.ID,
			Title:     "t",
			Message:   "m",
			Type:      enums.NotificationTypeInfo,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		created = append(created, n)
	}
	require.NoError(t, repo.Create(ctx, created...))
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: other.ID, Title: "x", Message: "y", Type: enums.NotificationTypeInfo}))

	page, next, err := repo.List(ctx, listNotificationsParams{UserID: user.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, created[2].ID, page[0].ID)
	assert.Equal(t, created[1].ID, page[1].ID)
	require.NotNil(t, next)
	assert.Equal(t, created[1].ID, next.ID)

	page, next, err = repo.List(ctx, listNotificationsParams{UserID: user.ID, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, created[0].ID, page[0].ID)
	assert.Nil(t, next)
}

func TestRepositoryMarkReadAndCount(t *testing.T) {
	conn := dbtest.OpenGorm(t)
	user := dbtest.CreateUser(t, conn, enums.RoleVendor)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := &models.Notification{UserID: user.ID, Title: "a", Message: "b", Type: enums.NotificationTypeSuccess}
	second := &models.Notification{UserID: user.ID, Title: "c", Message: "d", Type: enums.NotificationTypeWarning}
	require.NoError(t, repo.Create(ctx, first, second))

	count, err := repo.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	now := time.Now().UTC()
	mark, err := repo.MarkRead(ctx, user.ID, first.ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, user.ID, first.ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.False(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, uuid.New(), first.ID, now)
	require.NoError(t, err)
	assert.False(t, mark.Found)

	unread, _, err := repo.List(ctx, listNotificationsParams{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	updated, err := repo.MarkAllRead(ctx, user.ID, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	count, err = repo.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	var stored models.Notification
	require.NoError(t, conn.First(&stored, "id = ?", second.ID).Error)
	assert.True(t, stored.IsRead)
	require.NotNil(t, stored.ReadAt)
}
