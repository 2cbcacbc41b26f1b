package models

import "time"

// Session is a refresh-token session. Only the token digest is stored.
type Session struct {
	BaseModel

	UserID           string     `gorm:"type:uuid;not null;index" json:"user_id"`
	User             *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	RefreshTokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	IPAddress        string     `json:"ip_address"`
	UserAgent        string     `json:"user_agent"`
	ExpiresAt        time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt       time.Time  `json:"last_used_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session can still be refreshed at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
