package api

import (
	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/middleware"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/permissions"
)

// guardSet binds the access guards to one login path.
type guardSet struct {
	cfg middleware.GuardConfig
}

func (g guardSet) authenticated() gin.HandlerFunc {
	return middleware.RequireAuthenticated(g.cfg)
}

func (g guardSet) roles(roles ...models.Role) gin.HandlerFunc {
	return middleware.RequireRoles(g.cfg, roles...)
}

func (g guardSet) student() gin.HandlerFunc {
	return g.roles(models.RoleStudent)
}

func (g guardSet) staff() gin.HandlerFunc {
	return g.roles(permissions.StaffRoles...)
}

func (g guardSet) superuser() gin.HandlerFunc {
	return middleware.RequireSuperuser(g.cfg)
}
