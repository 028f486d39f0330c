package notifications

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/makersnearby/makersnearby-backend/pkg/db/models"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
	pkgerrors "github.com/makersnearby/makersnearby-backend/pkg/errors"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  level TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedNotification(t *testing.T, repo Repository, userID uuid.UUID, title string, createdAt time.Time) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Level:     enums.NotificationLevelSuccess,
		Title:     title,
		Message:   "body",
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), notification))
	return notification
}

func TestListReturnsNewestFirst(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedNotification(t, repo, userID, fmt.Sprintf("notice %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	result, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "notice 2", result.Items[0].Title)
	assert.Empty(t, result.Cursor)
}

func TestListPaginatesWithCursor(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedNotification(t, repo, userID, fmt.Sprintf("page %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	first, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)

	second, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.NotEqual(t, first.Items[0].ID, second.Items[0].ID)
}

func TestMarkReadScopesToUser(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	owner := uuid.New()
	notification := seedNotification(t, repo, owner, "mine", time.Now().UTC())

	err = svc.MarkRead(context.Background(), uuid.New(), notification.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, svc.MarkRead(context.Background(), owner, notification.ID))

	unread, err := svc.List(context.Background(), ListParams{UserID: owner, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}

func TestMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	seedNotification(t, repo, userID, "one", base)
	seedNotification(t, repo, userID, "two", base.Add(time.Minute))

	count, err := svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotifierWritesRow(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	notifier, err := NewNotifier(repo, logg)
	require.NoError(t, err)

	userID := uuid.New()
	notifier.Notify(context.Background(), userID, enums.NotificationLevelError, "upload failed", "2 of 3 images failed")

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.NotificationLevelError, rows[0].Level)
	assert.Equal(t, "upload failed", rows[0].Title)
}
