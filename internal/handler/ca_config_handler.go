package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/dto"
	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

type caConfigManager interface {
	State() models.CAConfigState
	Set(slot int, value float64) (models.CAConfigState, error)
	Save(ctx context.Context) (models.CAConfigState, error)
	Reset(ctx context.Context) models.CAConfigState
	ConfirmLeave(force bool) error
}

// CAConfigHandler edits the four CA slot maxima.
type CAConfigHandler struct {
	config caConfigManager
}

// NewCAConfigHandler constructs the handler.
func NewCAConfigHandler(config caConfigManager) *CAConfigHandler {
	return &CAConfigHandler{config: config}
}

// Get godoc
// @Summary CA configuration
// @Tags CA Config
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ca-config [get]
func (h *CAConfigHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.config.State(), nil)
}

// SetSlot godoc
// @Summary Change one slot maximum locally
// @Tags CA Config
// @Accept json
// @Produce json
// @Param slot path int true "Slot 1-4"
// @Param payload body dto.CASlotRequest true "Maximum"
// @Success 200 {object} response.Envelope
// @Router /ca-config/slots/{slot} [put]
func (h *CAConfigHandler) SetSlot(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid slot"))
		return
	}
	var req dto.CASlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "CA slot"))
		return
	}
	state, err := h.config.Set(slot, *req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Save godoc
// @Summary Save the CA configuration
// @Tags CA Config
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ca-config/save [post]
func (h *CAConfigHandler) Save(c *gin.Context) {
	state, err := h.config.Save(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if state.Notice == nil {
		response.JSON(c, http.StatusOK, state, nil)
		return
	}
	response.WithNotice(c, http.StatusOK, state, state.Notice.Text)
}

// Reset godoc
// @Summary Discard local edits and reload
// @Tags CA Config
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ca-config/reset [post]
func (h *CAConfigHandler) Reset(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.config.Reset(c.Request.Context()), nil)
}

// Leave godoc
// @Summary Confirm leaving the editor
// @Description Refused with 409 while edits are unsaved unless force=true.
// @Tags CA Config
// @Param force query bool false "Leave even with unsaved edits"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /ca-config/leave [post]
func (h *CAConfigHandler) Leave(c *gin.Context) {
	if err := h.config.ConfirmLeave(c.Query("force") == "true"); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
