package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/response"
)

// Role names one of the user's independent role flags.
type Role string

const (
	RoleLecturer Role = "lecturer"
	RoleDRO      Role = "dro"
	RoleFRO      Role = "fro"
	RoleCO       Role = "co"
)

// Holds reports whether user carries role.
func (r Role) Holds(user *models.User) bool {
	if user == nil {
		return false
	}
	switch r {
	case RoleLecturer:
		return user.IsLecturer
	case RoleDRO:
		return user.IsDRO
	case RoleFRO:
		return user.IsFRO
	case RoleCO:
		return user.IsCO
	}
	return false
}

// RBAC admits the request when the signed-in user holds at least one of the
// allowed roles. With no roles listed any role flag suffices; a user with no
// role at all is refused.
func RBAC(allowed ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if len(allowed) == 0 && user.HasAnyRole() {
			c.Next()
			return
		}
		for _, role := range allowed {
			if role.Holds(user) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "your role does not allow this"))
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...Role) gin.HandlerFunc {
	return RBAC(roles...)
}
