package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

// ContextUserKey is the gin context key storing the signed-in user.
const ContextUserKey = "currentUser"

// SessionUser reports the user of the desk's signed-in session, or nil.
type SessionUser interface {
	User() *models.User
}

// RequireSession protects routes that need a signed-in user.
func RequireSession(sessions SessionUser) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := sessions.User()
		if user == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "please sign in"))
			c.Abort()
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireSession.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
