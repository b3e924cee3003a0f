package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/dto"
	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/internal/service"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

type resultWorkflowService interface {
	Open(ctx context.Context, user *models.User, courseID int64) (*service.WorkspaceView, error)
	View(user *models.User, courseID int64) (*service.WorkspaceView, error)
	Close(courseID int64)
	UpdateScore(user *models.User, courseID int64, studentKey string, scores models.Scores) (*service.WorkspaceView, error)
	Create(ctx context.Context, user *models.User, courseID int64) (*service.Outcome, error)
	SaveDraft(ctx context.Context, user *models.User, courseID int64, reason string) (*service.Outcome, error)
	Apply(ctx context.Context, user *models.User, courseID int64, action models.ResultAction) (*service.Outcome, error)
	Reconcile(ctx context.Context, courseID int64) error
}

type scoreSheetExporter interface {
	ScoreSheet(user *models.User, courseID int64, format service.ExportFormat) (*service.ExportFile, error)
}

// ResultHandler exposes the per-course result editor.
type ResultHandler struct {
	workflow resultWorkflowService
	exporter scoreSheetExporter
}

// NewResultHandler constructs the handler.
func NewResultHandler(workflow resultWorkflowService, exporter scoreSheetExporter) *ResultHandler {
	return &ResultHandler{workflow: workflow, exporter: exporter}
}

// Open godoc
// @Summary Open a course's result
// @Description Loads the course, its current result and assessments, replacing any unsaved local edits.
// @Tags Results
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/workspace [post]
func (h *ResultHandler) Open(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.workflow.Open(c.Request.Context(), userFromContext(c), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// View godoc
// @Summary Current editor state
// @Tags Results
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/workspace [get]
func (h *ResultHandler) View(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.workflow.View(userFromContext(c), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Close godoc
// @Summary Close the editor
// @Description Discards unsaved edits for the course.
// @Tags Results
// @Param id path int true "Course ID"
// @Success 204
// @Router /courses/{id}/workspace [delete]
func (h *ResultHandler) Close(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.workflow.Close(courseID)
	response.NoContent(c)
}

// UpdateScore godoc
// @Summary Edit one student's marks
// @Description Changes local state only; nothing is sent until the draft is saved.
// @Tags Results
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param student path string true "Student key"
// @Param payload body dto.ScoreUpdateRequest true "Marks"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/workspace/scores/{student} [patch]
func (h *ResultHandler) UpdateScore(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ScoreUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "score"))
		return
	}
	view, err := h.workflow.UpdateScore(userFromContext(c), courseID, c.Param("student"), req.Scores())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Create godoc
// @Summary Create the course's result
// @Tags Results
// @Produce json
// @Param id path int true "Course ID"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/result [post]
func (h *ResultHandler) Create(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	outcome, err := h.workflow.Create(c.Request.Context(), userFromContext(c), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithNotice(c, http.StatusCreated, outcome.Workspace, outcome.Notice)
}

// SaveDraft godoc
// @Summary Save the draft
// @Description Sends every row. Validation errors produce a warning but do not block the save.
// @Tags Results
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.DraftRequest false "Edit reason"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/{id}/result/draft [post]
func (h *ResultHandler) SaveDraft(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DraftRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err, "draft"))
			return
		}
	}
	outcome, err := h.workflow.SaveDraft(c.Request.Context(), userFromContext(c), courseID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithNotice(c, http.StatusOK, outcome.Workspace, outcome.Notice)
}

// Apply godoc
// @Summary Perform a lifecycle action
// @Tags Results
// @Produce json
// @Param id path int true "Course ID"
// @Param action path string true "submit, resubmit, approve, reject, process or set_correction"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/result/actions/{action} [post]
func (h *ResultHandler) Apply(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	action := models.ResultAction(strings.ToLower(c.Param("action")))
	outcome, err := h.workflow.Apply(c.Request.Context(), userFromContext(c), courseID, action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithNotice(c, http.StatusOK, outcome.Workspace, outcome.Notice)
}

// Reconcile godoc
// @Summary Re-read the result status
// @Description Lets the service's status replace the local one and refreshes the badge.
// @Tags Results
// @Param id path int true "Course ID"
// @Success 204
// @Router /courses/{id}/result/reconcile [post]
func (h *ResultHandler) Reconcile(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.workflow.Reconcile(c.Request.Context(), courseID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the score sheet
// @Tags Results
// @Produce text/csv,application/pdf
// @Param id path int true "Course ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /courses/{id}/workspace/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	courseID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportCSV))))
	file, err := h.exporter.ScoreSheet(userFromContext(c), courseID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
