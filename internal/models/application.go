package models

import "time"

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every application status.
var ApplicationStatuses = []ApplicationStatus{ApplicationPending, ApplicationApproved, ApplicationRejected}

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Application is an administrative request addressed to a department. The
// verified flag is set by the staff intake desk and gates the dsw and exam
// controller queues.
type Application struct {
	ID              uint              `gorm:"primaryKey;autoIncrement" json:"pk"`
	StudentID       string            `gorm:"type:uuid;not null;index" json:"student_id"`
	Student         *User             `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Title           string            `gorm:"size:200;not null" json:"title"`
	Description     string            `gorm:"type:text;not null" json:"description"`
	ApplicationType string            `gorm:"size:50;not null" json:"application_type"`
	Department      Department        `gorm:"size:50;not null;index" json:"department"`
	Status          ApplicationStatus `gorm:"size:20;not null;index" json:"status"`
	Verified        bool              `gorm:"not null;index" json:"verified"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// DisplayID returns the user-facing identifier, e.g. A012.
func (a *Application) DisplayID() string {
	return FormatDisplayID(ApplicationPrefix, a.ID)
}
