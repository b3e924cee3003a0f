package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

type badgeCache interface {
	Snapshot() map[int64]models.ResultStatus
	Clear(ctx context.Context, courseID int64) error
	ClearAll(ctx context.Context) error
}

// BadgeHandler exposes the draft-status badges shown on the course list.
type BadgeHandler struct {
	badges badgeCache
}

// NewBadgeHandler constructs the handler.
func NewBadgeHandler(badges badgeCache) *BadgeHandler {
	return &BadgeHandler{badges: badges}
}

// List godoc
// @Summary Draft-status badges
// @Tags Badges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /badges [get]
func (h *BadgeHandler) List(c *gin.Context) {
	snapshot := h.badges.Snapshot()
	items := make([]models.DraftStatusBadge, 0, len(snapshot))
	for courseID, status := range snapshot {
		items = append(items, models.DraftStatusBadge{CourseID: courseID, Status: status})
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Clear godoc
// @Summary Clear one course's badge
// @Tags Badges
// @Param id path int true "Course ID"
// @Success 204
// @Router /badges/{id} [delete]
func (h *BadgeHandler) Clear(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.badges.Clear(c.Request.Context(), courseID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearAll godoc
// @Summary Clear every badge
// @Tags Badges
// @Success 204
// @Router /badges [delete]
func (h *BadgeHandler) ClearAll(c *gin.Context) {
	if err := h.badges.ClearAll(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
