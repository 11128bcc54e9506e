package database

import (
	"context"
	"testing"
	"time"

	"library/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationOutbox(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	n := &models.Notification{Kind: models.NotificationKindOverdue, ChatID: -100, Message: "late"}
	require.NoError(t, db.CreateNotification(ctx, n))
	assert.NotZero(t, n.ID)
	assert.Equal(t, models.NotificationPending, n.Status)

	pending, err := db.GetPendingNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "late", pending[0].Message)
	assert.Nil(t, pending[0].LastError)

	claimed, err := db.ClaimNotification(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = db.ClaimNotification(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, claimed, "a processing row cannot be claimed twice")

	next := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateNotificationStatus(ctx, n.ID, models.NotificationRetry, "timeout", &next))

	pending, err = db.GetPendingNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "retry is scheduled in the future")

	got, err := db.GetNotification(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "timeout", *got.LastError)

	require.NoError(t, db.UpdateNotificationStatus(ctx, n.ID, models.NotificationFailed, "gave up", nil))
	failed, err := db.GetFailedNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.NotNil(t, failed[0].ProcessedAt)
}

func TestResetStaleNotifications(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	n := &models.Notification{Kind: models.NotificationKindFine, ChatID: 1, Message: "fine"}
	require.NoError(t, db.CreateNotification(ctx, n))
	_, err := db.ClaimNotification(ctx, n.ID)
	require.NoError(t, err)

	reset, err := db.ResetStaleNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	got, err := db.GetNotification(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationRetry, got.Status)
}
