package api

import (
	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/handlers"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/permissions"
)

var browserDashboards = []struct {
	path string
	role models.Role
}{
	{permissions.DashboardStudent, models.RoleStudent},
	{permissions.DashboardStaff, models.RoleStaff},
	{permissions.DashboardProvost, models.RoleProvost},
	{permissions.DashboardDSW, models.RoleDSW},
	{permissions.DashboardExam, models.RoleExamController},
}

func registerDashboardRoutes(engine *gin.Engine, api *gin.RouterGroup, handler *handlers.DashboardHandler, guards guardSet) {
	api.GET("/dashboard", guards.authenticated(), handler.Summary)

	for _, board := range browserDashboards {
		engine.GET(board.path, guards.roles(board.role), handler.Summary)
	}
}
