package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

type notificationRepoStub struct {
	items     []models.Notification
	deleteErr error
	deleted   []int64
}

func (s *notificationRepoStub) List(ctx context.Context) ([]models.Notification, error) {
	return s.items, nil
}

func (s *notificationRepoStub) Delete(ctx context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func TestNotificationFeedOrdersNewestFirst(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	repo := &notificationRepoStub{items: []models.Notification{
		{ID: 1, Message: "undated"},
		{ID: 2, Message: "old", CreatedAt: &older, IsRead: true},
		{ID: 3, Message: "new", CreatedAt: &newer},
	}}
	svc := NewNotificationService(repo, nil)

	feed, err := svc.Feed(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Items, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{feed.Items[0].ID, feed.Items[1].ID, feed.Items[2].ID})
	assert.Equal(t, 2, feed.Unread)
}

func TestNotificationDismiss(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil)
	require.NoError(t, svc.Dismiss(context.Background(), 5))
	assert.Equal(t, []int64{5}, repo.deleted)

	repo.deleteErr = &httpclient.APIError{StatusCode: http.StatusNotFound, Detail: "Not found."}
	err := svc.Dismiss(context.Background(), 6)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "Not found.", appErr.Message)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}
