package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/dto"
	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/internal/service"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

type submittedResultService interface {
	List(ctx context.Context, filter models.SubmittedResultFilter) ([]models.SubmittedResult, error)
	Detail(ctx context.Context, user *models.User, id int64) (*service.SubmittedResultDetail, error)
	Review(ctx context.Context, user *models.User, id int64, decision models.ReviewDecision) (*service.ReviewOutcome, error)
	SetCorrection(ctx context.Context, user *models.User, id int64) (*service.ReviewOutcome, error)
	SaveCorrections(ctx context.Context, user *models.User, id int64, corrections []service.ScoreCorrection, reason string) (*service.ReviewOutcome, error)
	Resubmit(ctx context.Context, user *models.User, id int64) (*service.ReviewOutcome, error)
}

// SubmittedResultHandler serves the reviewer dashboard.
type SubmittedResultHandler struct {
	results submittedResultService
}

// NewSubmittedResultHandler constructs the handler.
func NewSubmittedResultHandler(results submittedResultService) *SubmittedResultHandler {
	return &SubmittedResultHandler{results: results}
}

// List godoc
// @Summary List submitted results
// @Tags Submitted Results
// @Produce json
// @Param include_drafts query bool false "Include drafts"
// @Param status query string false "D, C, P_D, P_F, A or R"
// @Success 200 {object} response.Envelope
// @Router /submitted-results [get]
func (h *SubmittedResultHandler) List(c *gin.Context) {
	filter := models.SubmittedResultFilter{
		IncludeDrafts: c.Query("include_drafts") == "true",
		Status:        models.ResultStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
	}
	if !filter.Status.Known() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status filter"))
		return
	}
	items, err := h.results.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SubmittedResultList{Items: items, Counts: service.CountByStatus(items)}, nil)
}

// Get godoc
// @Summary Submitted result detail
// @Tags Submitted Results
// @Produce json
// @Param id path int true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /submitted-results/{id} [get]
func (h *SubmittedResultHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.results.Detail(c.Request.Context(), userFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Review godoc
// @Summary Approve or reject a result
// @Tags Submitted Results
// @Accept json
// @Produce json
// @Param id path int true "Result ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /submitted-results/{id}/review [post]
func (h *SubmittedResultHandler) Review(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "review"))
		return
	}
	outcome, err := h.results.Review(c.Request.Context(), userFromContext(c), id, req.Decision)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithNotice(c, http.StatusOK, outcome.Result, outcome.Notice)
}

// SetCorrection godoc
// @Summary Reopen an approved result for correction
// @Tags Submitted Results
// @Produce json
// @Param id path int true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /submitted-results/{id}/correction [post]
func (h *SubmittedResultHandler) SetCorrection(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	outcome, err := h.results.SetCorrection(c.Request.Context(), userFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithNotice(c, http.StatusOK, outcome.Result, outcome.Notice)
}

// SaveCorrections godoc
// @Summary Save corrected scores
// @Tags Submitted Results
// @Accept json
// @Produce json
// @Param id path int true "Result ID"
// @Param payload body dto.CorrectionsRequest true "Corrections"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /submitted-results/{id}/scores [patch]
func (h *SubmittedResultHandler) SaveCorrections(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CorrectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "corrections"))
		return
	}
	corrections := make([]service.ScoreCorrection, len(req.Rows))
	for i, row := range req.Rows {
		corrections[i] = service.ScoreCorrection{ScoreID: row.ScoreID, Scores: row.Scores()}
	}
	outcome, err := h.results.SaveCorrections(c.Request.Context(), userFromContext(c), id, corrections, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithNotice(c, http.StatusOK, outcome.Result, outcome.Notice)
}

// Resubmit godoc
// @Summary Resubmit a corrected result
// @Tags Submitted Results
// @Produce json
// @Param id path int true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /submitted-results/{id}/resubmit [post]
func (h *SubmittedResultHandler) Resubmit(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	outcome, err := h.results.Resubmit(c.Request.Context(), userFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithNotice(c, http.StatusOK, outcome.Result, outcome.Notice)
}
