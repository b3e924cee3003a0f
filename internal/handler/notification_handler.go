package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/service"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

type notificationService interface {
	Feed(ctx context.Context) (*service.NotificationFeed, error)
	Dismiss(ctx context.Context, id int64) error
}

// NotificationHandler serves the alert feed.
type NotificationHandler struct {
	notifications notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary Notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	feed, err := h.notifications.Feed(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feed.Items, nil, map[string]interface{}{"unread": feed.Unread})
}

// Dismiss godoc
// @Summary Dismiss a notification
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 204
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.notifications.Dismiss(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
