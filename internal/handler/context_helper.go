package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/middleware"
	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

func userFromContext(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

func int64Param(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" "+strconv.Quote(raw))
	}
	return id, nil
}

func invalidPayload(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+what+" payload")
}
