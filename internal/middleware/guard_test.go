package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/response"
)

func TestIsAPIRequest(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		header map[string]string
		want   bool
	}{
		{"api prefix", "/api/complaints/my", nil, true},
		{"ajax", "/dashboard/student", map[string]string{"X-Requested-With": "XMLHttpRequest"}, true},
		{"accept json", "/dashboard/student", map[string]string{"Accept": "text/html, application/json"}, true},
		{"json body", "/dashboard/student", map[string]string{"Content-Type": "application/json; charset=utf-8"}, true},
		{"browser", "/dashboard/student", map[string]string{"Accept": "text/html"}, false},
		{"apiary is not api", "/apiary", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, IsAPIRequest(req))
		})
	}
}

func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(CtxUserKey, user)
		}
		c.Next()
	}
}

func guardedRouter(user *models.User, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(user))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/api/staff-only", handler, ok)
	r.GET("/dashboard/staff", handler, ok)
	return r
}

func TestRequireRolesDecisions(t *testing.T) {
	cfg := GuardConfig{LoginPath: "/login"}
	staffOnly := RequireRoles(cfg, models.RoleStaff, models.RoleProvost)

	student := &models.User{Role: models.RoleStudent}
	staff := &models.User{Role: models.RoleStaff}
	admin := &models.User{Role: models.RoleStudent, IsSuperuser: true}

	t.Run("anonymous api gets 401 json", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(nil, staffOnly).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/staff-only", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		var payload response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		require.Equal(t, "UNAUTHORIZED", payload.Error.Code)
	})

	t.Run("anonymous browser is redirected with next", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(nil, staffOnly).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/staff?tab=open", nil))
		require.Equal(t, http.StatusFound, w.Code)
		require.Equal(t, "/login?next=%2Fdashboard%2Fstaff%3Ftab%3Dopen", w.Header().Get("Location"))
	})

	t.Run("wrong role api gets 403 json", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(student, staffOnly).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/staff-only", nil))
		require.Equal(t, http.StatusForbidden, w.Code)
		var payload response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		require.Equal(t, "FORBIDDEN", payload.Error.Code)
	})

	t.Run("wrong role browser gets html page", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(student, staffOnly).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/staff", nil))
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Contains(t, w.Header().Get("Content-Type"), "text/html")
		require.Contains(t, w.Body.String(), "403 Forbidden")
	})

	for name, user := range map[string]*models.User{"matching role": staff, "superuser": admin} {
		t.Run(name+" is allowed", func(t *testing.T) {
			w := httptest.NewRecorder()
			guardedRouter(user, staffOnly).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/staff-only", nil))
			require.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRequireAuthenticatedAndSuperuser(t *testing.T) {
	cfg := GuardConfig{}
	student := &models.User{Role: models.RoleStudent}
	admin := &models.User{Role: models.RoleStaff, IsSuperuser: true}

	w := httptest.NewRecorder()
	guardedRouter(student, RequireAuthenticated(cfg)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/staff-only", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	guardedRouter(nil, RequireAuthenticated(cfg)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/staff", nil))
	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), DefaultLoginPath+"?next=")

	w = httptest.NewRecorder()
	guardedRouter(&models.User{Role: models.RoleStaff}, RequireSuperuser(cfg)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/staff-only", nil))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	guardedRouter(admin, RequireSuperuser(cfg)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/staff-only", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
