package api

import (
	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/handlers"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler, guards guardSet) {
	group := api.Group("/notifications")
	group.Use(guards.authenticated())
	{
		group.GET("", handler.List)
		group.GET("/unread-count", handler.UnreadCount)
		group.GET("/stream", handler.Stream)
		group.POST("/read-all", handler.MarkAllRead)
		group.POST("/:id/read", handler.MarkRead)
	}
}
