package api

import (
	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/handlers"
)

type authRouteDeps struct {
	Handler *handlers.AuthHandler
	Guards  guardSet
	// Limiter guards credential endpoints; nil disables it.
	Limiter gin.HandlerFunc
}

func registerAuthRoutes(engine *gin.Engine, api *gin.RouterGroup, deps authRouteDeps) {
	h := deps.Handler

	engine.GET("/", h.Home)
	engine.GET("/login", h.LoginPage)
	engine.GET("/logout", h.BrowserLogout)

	public := api.Group("/auth")
	{
		public.POST("/register", limited(deps.Limiter, h.Register)...)
		public.POST("/login", limited(deps.Limiter, h.Login)...)
		public.POST("/refresh", h.Refresh)
	}

	auth := api.Group("/auth")
	auth.Use(deps.Guards.authenticated())
	{
		auth.GET("/me", h.Me)
		auth.POST("/logout", h.Logout)
		auth.PUT("/email", h.ChangeEmail)
		auth.POST("/otp/request", h.RequestOTP)
		auth.POST("/otp/verify", h.VerifyOTP)
	}
}

func limited(limiter gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{limiter, handler}
}
