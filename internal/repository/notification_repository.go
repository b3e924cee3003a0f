package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

// NotificationRepository reads the user's alert feed.
type NotificationRepository struct {
	client *httpclient.Client
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(client *httpclient.Client) *NotificationRepository {
	return &NotificationRepository{client: client}
}

// List returns all notifications.
func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	items, err := collect[models.Notification](ctx, r.client, "/notification/")
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// Delete dismisses a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	if err := r.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/notification/%d/", id), nil, nil); err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	return nil
}
