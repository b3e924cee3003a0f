package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/dto"
	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

type sessionService interface {
	SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error)
	Current() (*models.Session, error)
	SignOut(ctx context.Context)
}

// SessionHandler signs the desk's single user in and out.
type SessionHandler struct {
	sessions sessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions sessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SignIn godoc
// @Summary Sign in
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.SignInRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /session [post]
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "sign-in"))
		return
	}
	session, err := h.sessions.SignIn(c.Request.Context(), req.Credentials())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Me godoc
// @Summary Current session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Me(c *gin.Context) {
	session, err := h.sessions.Current()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// SignOut godoc
// @Summary Sign out
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) SignOut(c *gin.Context) {
	h.sessions.SignOut(c.Request.Context())
	response.NoContent(c)
}
