package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/pkg/response"
)

func panickingRouter() *gin.Engine {
	r := gin.New()
	r.Use(Recovery())
	handler := func(c *gin.Context) { panic("boom") }
	r.GET("/api/complaints/my", handler)
	r.GET("/dashboard/student", handler)
	return r
}

func TestRecoveryAnswersAPICallersWithEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	panickingRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/complaints/my", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.False(t, payload.Success)
	require.Equal(t, "INTERNAL_SERVER_ERROR", payload.Error.Code)
	require.NotContains(t, w.Body.String(), "boom")
}

func TestRecoveryAnswersBrowsersWithPage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/student", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	panickingRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Contains(t, w.Body.String(), "Something went wrong")
	require.NotContains(t, w.Body.String(), "boom")
}

func TestNotFoundHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.NoRoute(NotFoundHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tickets", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "NOT_FOUND", payload.Error.Code)
	require.Contains(t, payload.Error.Message, "route /api/tickets not found")
}
