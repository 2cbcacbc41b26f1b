package api

import (
	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/handlers"
	"github.com/campusfix/campusfix/internal/models"
)

func registerComplaintRoutes(api *gin.RouterGroup, handler *handlers.ComplaintHandler, guards guardSet) {
	group := api.Group("/complaints")
	{
		group.POST("/submit", guards.student(), handler.Submit)
		group.GET("/my", guards.student(), handler.ListMine)
		group.POST("/delete", guards.student(), handler.Delete)

		group.GET("", guards.staff(), handler.ListDepartment)
		group.GET("/all", guards.staff(), handler.ListDepartment)
		group.POST("/update-status", guards.staff(), handler.UpdateStatus)

		group.GET("/:id", guards.authenticated(), handler.Get)
	}
}

func registerApplicationRoutes(api *gin.RouterGroup, handler *handlers.ApplicationHandler, guards guardSet) {
	group := api.Group("/applications")
	{
		group.POST("/submit", guards.student(), handler.Submit)
		group.GET("/my", guards.student(), handler.ListMine)
		group.POST("/delete", guards.student(), handler.Delete)

		group.GET("", guards.staff(), handler.ListDepartment)
		group.GET("/all", guards.staff(), handler.ListDepartment)
		group.POST("/update-status", guards.staff(), handler.UpdateStatus)

		group.GET("/intake", guards.roles(models.RoleStaff), handler.ListIntake)
		group.POST("/verify", guards.roles(models.RoleStaff), handler.Verify)

		group.GET("/:id", guards.authenticated(), handler.Get)
	}
}
