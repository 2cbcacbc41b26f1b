package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func serveWithHeaders(opts SecurityOptions, path string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(SecurityHeaders(opts))
	r.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSecurityHeadersOverHTTPS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := serveWithHeaders(SecurityOptions{HTTPS: true}, "/api/complaints/my")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	require.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestSecurityHeadersPlainHTTPBrowserRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := serveWithHeaders(SecurityOptions{}, "/dashboard/student")
	require.Empty(t, w.Header().Get("Strict-Transport-Security"))
	require.Empty(t, w.Header().Get("Cache-Control"))
	require.Equal(t, "same-origin", w.Header().Get("Referrer-Policy"))
}
