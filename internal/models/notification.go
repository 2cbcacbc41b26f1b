package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types emitted by the ticket workflow.
const (
	NotificationComplaintStatus     = "complaint_status"
	NotificationApplicationStatus   = "application_status"
	NotificationApplicationVerified = "application_verified"
)

// Notification is a message addressed to one user, optionally tied to a ticket
// through its display id.
type Notification struct {
	BaseModel

	UserID      string         `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Type        string         `gorm:"type:varchar(64);not null" json:"type"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Message     string         `gorm:"type:text" json:"message"`
	ReferenceID string         `gorm:"type:varchar(20);index" json:"reference_id,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`

	IsRead bool       `gorm:"not null;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}
