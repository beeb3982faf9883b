package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/models"
)

func TestNotificationRepositoryBatchAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	batch := []models.Notification{
		{RecipientID: 1, Type: models.NotificationTypeApproval, Title: "Approved"},
		{RecipientID: 1, Type: models.NotificationTypeReminder, Title: "Reminder"},
		{RecipientID: 2, Type: models.NotificationTypeRejection, Title: "Rejected"},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))
	require.NoError(t, repo.CreateBatch(context.Background(), nil), "empty batches are a no-op")

	notifications, err := repo.ListByRecipient(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	notifications, err = repo.ListByRecipient(context.Background(), 1, 1, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
}

func TestNotificationRepositoryMarkReadScopedToRecipient(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	batch := []models.Notification{{RecipientID: 1, Type: models.NotificationTypeApproval, Title: "Approved"}}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))

	_, err := repo.MarkRead(context.Background(), batch[0].ID, 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound, "recipients cannot read each other's rows")

	read, err := repo.MarkRead(context.Background(), batch[0].ID, 1)
	require.NoError(t, err)
	require.True(t, read.Read)

	again, err := repo.MarkRead(context.Background(), batch[0].ID, 1)
	require.NoError(t, err)
	require.True(t, again.Read)
}

func TestNotificationRepositoryCountUnread(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	batch := []models.Notification{
		{RecipientID: 1, Type: models.NotificationTypeApproval, Title: "Approved"},
		{RecipientID: 1, Type: models.NotificationTypeReminder, Title: "Reminder"},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))

	count, err := repo.CountUnread(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	_, err = repo.MarkRead(context.Background(), batch[0].ID, 1)
	require.NoError(t, err)

	count, err = repo.CountUnread(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
