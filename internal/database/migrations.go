package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/crypto"
)

// SeedConfig describes the optional administrative account created at start-up.
type SeedConfig struct {
	AdminCollegeID string
	AdminEmail     string
	AdminPassword  string
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.Application{},
		&models.Notification{},
		&models.Session{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}

// SeedData inserts the bootstrap superuser when one is configured. Existing
// accounts with the same college id are left untouched.
func SeedData(db *gorm.DB, seed SeedConfig) error {
	collegeID := strings.TrimSpace(seed.AdminCollegeID)
	if collegeID == "" {
		return nil
	}
	if seed.AdminPassword == "" || seed.AdminEmail == "" {
		return errors.New("bootstrap admin requires email and password")
	}

	hash, err := crypto.HashPassword(seed.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		CollegeID:    collegeID,
		Email:        strings.ToLower(strings.TrimSpace(seed.AdminEmail)),
		PasswordHash: hash,
		FirstName:    "Portal",
		LastName:     "Administrator",
		Role:         models.RoleStaff,
		IsSuperuser:  true,
		IsActive:     true,
		IsVerified:   true,
	}
	return db.Where(models.User{CollegeID: collegeID}).Attrs(admin).FirstOrCreate(&models.User{}).Error
}
