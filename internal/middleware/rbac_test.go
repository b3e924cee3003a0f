package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-result-desk/internal/models"
)

type sessionStub struct {
	user *models.User
}

func (s *sessionStub) User() *models.User { return s.user }

func buildRouter(sessions *sessionStub, roles ...Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireSession(sessions), RequireRoles(roles...))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).Username})
	})
	return router
}

func serve(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequireSessionWithoutUser(t *testing.T) {
	w := serve(buildRouter(&sessionStub{}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACAdmitsAnyHeldRole(t *testing.T) {
	sessions := &sessionStub{user: &models.User{ID: 3, Username: "both", IsLecturer: true, IsDRO: true}}
	w := serve(buildRouter(sessions, RoleDRO, RoleFRO))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"both"`)
}

func TestRBACRefusesMissingRole(t *testing.T) {
	sessions := &sessionStub{user: &models.User{ID: 4, Username: "lect", IsLecturer: true}}
	w := serve(buildRouter(sessions, RoleFRO))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACWithoutListedRolesNeedsSomeRole(t *testing.T) {
	w := serve(buildRouter(&sessionStub{user: &models.User{ID: 5, Username: "nobody"}}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(buildRouter(&sessionStub{user: &models.User{ID: 6, Username: "co", IsCO: true}}))
	assert.Equal(t, http.StatusOK, w.Code)
}

type observerStub struct {
	paths []string
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, method+" "+path)
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/courses/42", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, []string{"GET /courses/:id"}, observer.paths)
}
