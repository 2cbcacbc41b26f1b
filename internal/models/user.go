package models

import (
	"strings"
	"time"
)

// Role is the single role a portal account holds.
type Role string

const (
	RoleStudent        Role = "student"
	RoleStaff          Role = "staff"
	RoleProvost        Role = "provost"
	RoleDSW            Role = "dsw"
	RoleExamController Role = "exam_controller"
)

// Roles lists every assignable role in display order.
var Roles = []Role{RoleStudent, RoleStaff, RoleProvost, RoleDSW, RoleExamController}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User is a portal account. College id and email are each globally unique.
type User struct {
	BaseModel

	CollegeID    string `gorm:"size:20;uniqueIndex;not null" json:"college_id"`
	Email        string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	FirstName   string `gorm:"size:50" json:"first_name"`
	LastName    string `gorm:"size:50" json:"last_name"`
	PhoneNumber string `gorm:"size:15" json:"phone_number"`

	Role        Role `gorm:"size:20;not null;index" json:"role"`
	IsSuperuser bool `gorm:"not null" json:"is_superuser"`
	IsActive    bool `gorm:"not null" json:"is_active"`
	IsVerified  bool `gorm:"not null" json:"is_verified"`

	OTPCode      string     `gorm:"column:otp_code;size:6" json:"-"`
	OTPCreatedAt *time.Time `gorm:"column:otp_created_at" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
}

// FullName joins first and last name, falling back to the college id.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.CollegeID
	}
	return name
}
