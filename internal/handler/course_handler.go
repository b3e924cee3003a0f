package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/service"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

type courseService interface {
	List(ctx context.Context) ([]service.CourseListItem, error)
	Projection() []service.CourseListItem
}

// CourseHandler serves the course list.
type CourseHandler struct {
	courses courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(courses courseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary List courses
// @Description Fetches the caller's courses and overlays the draft-status badges.
// @Tags Courses
// @Produce json
// @Param cached query bool false "Serve the last fetched list without calling the result service"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	if c.Query("cached") == "true" {
		response.JSON(c, http.StatusOK, h.courses.Projection(), nil)
		return
	}
	items, err := h.courses.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
