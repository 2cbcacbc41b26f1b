package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/logger"
)

func TestLoggerRecordsPrincipalAndRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zap.DebugLevel)
	t.Cleanup(logger.Replace(zap.New(core)))

	r := gin.New()
	r.Use(Logger())
	r.GET("/api/complaints/:id", func(c *gin.Context) {
		c.Set(CtxUserKey, &models.User{BaseModel: models.BaseModel{ID: "user-1"}, CollegeID: "STU001", Role: models.RoleStudent})
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/complaints/C001", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	require.Equal(t, "/api/complaints/C001", fields["path"])
	require.Equal(t, "/api/complaints/:id", fields["route"])
	require.Equal(t, "STU001", fields["college_id"])
	require.Equal(t, "student", fields["role"])
}

func TestLoggerLevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zap.DebugLevel)
	t.Cleanup(logger.Replace(zap.New(core)))

	r := gin.New()
	r.Use(Logger())
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	cases := []struct {
		path  string
		level zapcore.Level
		route string
	}{
		{"/boom", zapcore.ErrorLevel, "/boom"},
		{"/missing", zapcore.WarnLevel, unmatchedRoute},
	}
	for _, tc := range cases {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))
		last := recorded.All()[recorded.Len()-1]
		require.Equal(t, tc.level, last.Level, tc.path)
		require.Equal(t, tc.route, last.ContextMap()["route"], tc.path)
	}
}
