package models

import "time"

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "pending"
	ComplaintInProgress ComplaintStatus = "in-progress"
	ComplaintResolved   ComplaintStatus = "resolved"
	ComplaintRejected   ComplaintStatus = "rejected"
)

// ComplaintStatuses lists every complaint status.
var ComplaintStatuses = []ComplaintStatus{ComplaintPending, ComplaintInProgress, ComplaintResolved, ComplaintRejected}

// Valid reports whether s is a known complaint status.
func (s ComplaintStatus) Valid() bool {
	for _, known := range ComplaintStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Complaint is a grievance raised by a student and routed to one department.
type Complaint struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"pk"`
	StudentID   string          `gorm:"type:uuid;not null;index" json:"student_id"`
	Student     *User           `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string          `gorm:"size:200;not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Category    string          `gorm:"size:50;not null;index" json:"category"`
	Department  Department      `gorm:"size:50;not null;index" json:"department"`
	Hall        string          `gorm:"size:50;not null" json:"hall"`
	Priority    Priority        `gorm:"size:20;not null" json:"priority"`
	Status      ComplaintStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DisplayID returns the user-facing identifier, e.g. C007.
func (c *Complaint) DisplayID() string {
	return FormatDisplayID(ComplaintPrefix, c.ID)
}
