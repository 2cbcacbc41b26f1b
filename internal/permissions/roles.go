package permissions

import "github.com/campusfix/campusfix/internal/models"

// Dashboard routes. Superusers land on the administrative index.
const (
	DashboardStudent = "/dashboard/student"
	DashboardStaff   = "/dashboard/staff"
	DashboardProvost = "/dashboard/provost"
	DashboardDSW     = "/dashboard/dsw"
	DashboardExam    = "/dashboard/exam"
	DashboardAdmin   = "/admin/"
)

// Each staff role owns exactly one department queue.
var departmentByRole = map[models.Role]models.Department{
	models.RoleStaff:          models.DepartmentStaff,
	models.RoleProvost:        models.DepartmentProvost,
	models.RoleDSW:            models.DepartmentDSW,
	models.RoleExamController: models.DepartmentExamController,
}

var dashboardByRole = map[models.Role]string{
	models.RoleStudent:        DashboardStudent,
	models.RoleStaff:          DashboardStaff,
	models.RoleProvost:        DashboardProvost,
	models.RoleDSW:            DashboardDSW,
	models.RoleExamController: DashboardExam,
}

// StaffRoles are the roles that work a department queue.
var StaffRoles = []models.Role{
	models.RoleStaff,
	models.RoleProvost,
	models.RoleDSW,
	models.RoleExamController,
}

// DepartmentFor returns the department queue served by role. The boolean is
// false for roles without a queue (students).
func DepartmentFor(role models.Role) (models.Department, bool) {
	dept, ok := departmentByRole[role]
	return dept, ok
}

// IsStaffRole reports whether role works a department queue.
func IsStaffRole(role models.Role) bool {
	_, ok := departmentByRole[role]
	return ok
}

// DashboardFor picks the landing route after login.
func DashboardFor(user *models.User) string {
	if user == nil {
		return ""
	}
	if user.IsSuperuser {
		return DashboardAdmin
	}
	if route, ok := dashboardByRole[user.Role]; ok {
		return route
	}
	return DashboardStudent
}

// RequiresVerifiedApplications reports whether role only sees applications the
// intake desk has verified.
func RequiresVerifiedApplications(role models.Role) bool {
	return role == models.RoleDSW || role == models.RoleExamController
}
