package api

import (
	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/handlers"
	"github.com/campusfix/campusfix/internal/permissions"
)

type adminRouteDeps struct {
	Admin     *handlers.AdminHandler
	Dashboard *handlers.DashboardHandler
	Guards    guardSet
}

func registerAdminRoutes(engine *gin.Engine, api *gin.RouterGroup, deps adminRouteDeps) {
	engine.GET(permissions.DashboardAdmin, deps.Guards.superuser(), deps.Dashboard.Summary)

	admin := api.Group("/admin")
	admin.Use(deps.Guards.superuser())
	{
		admin.GET("/audit", deps.Admin.Audit)
		admin.DELETE("/users/:id", deps.Admin.DeleteUser)
		admin.GET("/security", deps.Admin.Security)
	}
}
