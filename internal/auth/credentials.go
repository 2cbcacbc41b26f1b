package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/crypto"
)

// ErrInvalidCredentials covers both an unknown college id and a wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// CredentialVerifier checks a college id and password pair against the user
// directory. It has no side effects: no counters, no lockout, no login stamp.
type CredentialVerifier struct {
	db *gorm.DB
}

// NewCredentialVerifier builds a verifier backed by db.
func NewCredentialVerifier(db *gorm.DB) (*CredentialVerifier, error) {
	if db == nil {
		return nil, errors.New("credential verifier: db is required")
	}
	return &CredentialVerifier{db: db}, nil
}

var (
	decoyOnce sync.Once
	decoyHash string
)

// Verify returns the user iff collegeID exists and password matches its hash.
func (v *CredentialVerifier) Verify(ctx context.Context, collegeID, password string) (*models.User, error) {
	collegeID = strings.TrimSpace(collegeID)
	if collegeID == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := v.db.WithContext(ctx).Where("college_id = ?", collegeID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Spend a bcrypt comparison anyway so a miss costs the same as a mismatch.
		crypto.VerifyPassword(decoy(), password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("credential verifier: lookup user: %w", err)
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func decoy() string {
	decoyOnce.Do(func() {
		decoyHash, _ = crypto.HashPassword("campusfix-decoy-password")
	})
	return decoyHash
}
