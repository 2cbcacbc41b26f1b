package permissions

import (
	"slices"

	"github.com/campusfix/campusfix/internal/models"
)

// Allowed reports whether user may reach an operation restricted to roles.
// Superusers are always allowed. An empty role list admits superusers only.
func Allowed(user *models.User, roles ...models.Role) bool {
	if user == nil || !user.IsActive {
		return false
	}
	if user.IsSuperuser {
		return true
	}
	return slices.Contains(roles, user.Role)
}

// CanViewTicket reports whether user may read a ticket owned by ownerID.
// Students (other than superusers) only see their own tickets.
func CanViewTicket(user *models.User, ownerID string) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser || user.Role != models.RoleStudent {
		return true
	}
	return user.ID == ownerID
}

// CanWorkDepartment reports whether user may act on tickets in dept. Staff
// roles are confined to their own queue.
func CanWorkDepartment(user *models.User, dept models.Department) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser {
		return true
	}
	own, ok := DepartmentFor(user.Role)
	return ok && own == dept
}

// QueueFilter describes which department a listing is restricted to. All is
// true when the caller sees every department.
type QueueFilter struct {
	Department models.Department
	All        bool
}

// QueueFor resolves the listing scope for user: a staff role sees its own
// department, anyone else who passed the guard sees everything.
func QueueFor(user *models.User) QueueFilter {
	if user != nil {
		if dept, ok := DepartmentFor(user.Role); ok {
			return QueueFilter{Department: dept}
		}
	}
	return QueueFilter{All: true}
}
