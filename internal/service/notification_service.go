package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-desk/internal/models"
)

type notificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	Delete(ctx context.Context, id int64) error
}

// NotificationFeed is the alert list with its unread count.
type NotificationFeed struct {
	Items  []models.Notification `json:"items"`
	Unread int                   `json:"unread"`
}

// NotificationService reads the user's alerts.
type NotificationService struct {
	repo   notificationRepository
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// Feed lists notifications newest first.
func (s *NotificationService) Feed(ctx context.Context) (*NotificationFeed, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, remoteError(err, "Failed to load notifications.")
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CreatedAt, items[j].CreatedAt
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	feed := &NotificationFeed{Items: items}
	for _, n := range items {
		if !n.IsRead {
			feed.Unread++
		}
	}
	return feed, nil
}

// Dismiss deletes one notification.
func (s *NotificationService) Dismiss(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return remoteError(err, "Failed to dismiss notification.")
	}
	s.logger.Debug("notification dismissed", zap.Int64("notification_id", id))
	return nil
}
