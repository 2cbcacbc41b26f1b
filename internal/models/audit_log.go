package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records an action taken by an actor against a resource such as
// "complaint:C001". Entries outlive the actor so UserID is nullable.
type AuditLog struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    *string        `gorm:"type:uuid;index" json:"user_id"`
	CollegeID string         `gorm:"size:20" json:"college_id"`
	Action    string         `gorm:"size:64;not null;index" json:"action"`
	Resource  string         `gorm:"size:64;index" json:"resource"`
	Result    string         `gorm:"size:16;not null" json:"result"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
