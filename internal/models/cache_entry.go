package models

import "time"

// CacheEntry backs the cache store when redis is not configured. Keys carry
// their namespace prefix ("session:", "ratelimit:").
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name across drivers.
func (CacheEntry) TableName() string { return "cache_entries" }
