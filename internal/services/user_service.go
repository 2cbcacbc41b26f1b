package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/crypto"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/validator"
)

// RegisterInput is the self-service registration form.
type RegisterInput struct {
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email,max=254"`
	CollegeID   string `json:"college_id" validate:"required,college_id"`
	PhoneNumber string `json:"phone_number" validate:"required,max=15,phone"`
	Role        string `json:"role" validate:"required,oneof=student staff provost dsw exam_controller"`
	Password1   string `json:"password1" validate:"required,min=8"`
	Password2   string `json:"password2" validate:"required,eqfield=Password1"`
}

// UserConfig tunes registration.
type UserConfig struct {
	// RegistrationRoles limits the roles a visitor may claim. Empty means all.
	RegistrationRoles []models.Role
	Clock             func() time.Time
}

// UserService owns the user directory.
type UserService struct {
	db    *gorm.DB
	audit *AuditService
	roles []models.Role
	now   func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, audit *AuditService, cfg UserConfig) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	roles := cfg.RegistrationRoles
	if len(roles) == 0 {
		roles = models.Roles
	}
	return &UserService{db: db, audit: audit, roles: roles, now: clockOrDefault(cfg.Clock)}, nil
}

// Register creates an active, verified account. Duplicate college ids and
// emails are reported as field errors.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	trimAll(&input.FirstName, &input.LastName, &input.Email, &input.CollegeID, &input.PhoneNumber, &input.Role)
	input.Email = strings.ToLower(input.Email)

	if err := validator.ValidateStruct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.NewValidation(verrs.Fields())
		}
		return nil, fmt.Errorf("user service: validate registration: %w", err)
	}
	role := models.Role(input.Role)
	if !slices.Contains(s.roles, role) {
		return nil, apperrors.NewValidation(map[string]string{"role": "Select a valid choice."})
	}

	fields, err := s.duplicateFields(ctx, input.CollegeID, input.Email)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidation(fields)
	}

	hashed, err := crypto.HashPassword(input.Password1)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		CollegeID:    input.CollegeID,
		Email:        input.Email,
		PasswordHash: hashed,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		Role:         role,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Lost a race with a concurrent registration.
			fields, lookupErr := s.duplicateFields(ctx, input.CollegeID, input.Email)
			if lookupErr == nil && len(fields) > 0 {
				return nil, apperrors.NewValidation(fields)
			}
			return nil, apperrors.NewValidation(map[string]string{"college_id": duplicateCollegeID})
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	entry := actorEntry(user, "user.register", "user:"+user.CollegeID)
	entry.Metadata = map[string]any{"role": string(user.Role)}
	recordAudit(s.audit, ctx, entry)
	return user, nil
}

const (
	duplicateCollegeID = "A user with this College ID already exists."
	duplicateEmail     = "A user with this email already exists."
)

func (s *UserService) duplicateFields(ctx context.Context, collegeID, email string) (map[string]string, error) {
	fields := map[string]string{}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("college_id = ?", collegeID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("user service: check college id: %w", err)
	}
	if count > 0 {
		fields["college_id"] = duplicateCollegeID
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("user service: check email: %w", err)
	}
	if count > 0 {
		fields["email"] = duplicateEmail
	}
	return fields, nil
}

// GetByID loads a user.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// MarkLogin stamps the last successful login.
func (s *UserService) MarkLogin(ctx context.Context, user *models.User) error {
	ctx = ensureContext(ctx)
	now := s.now()
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("last_login_at", now).Error; err != nil {
		return fmt.Errorf("user service: mark login: %w", err)
	}
	user.LastLoginAt = &now
	return nil
}

// ChangeEmail replaces the user's email and clears the verified flag until a
// new code is confirmed.
func (s *UserService) ChangeEmail(ctx context.Context, user *models.User, email string) error {
	ctx = ensureContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	payload := struct {
		Email string `json:"email" validate:"required,email,max=254"`
	}{Email: email}
	if err := validator.ValidateStruct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.NewValidation(verrs.Fields())
		}
		return fmt.Errorf("user service: validate email: %w", err)
	}
	if strings.EqualFold(email, user.Email) {
		return nil
	}

	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = ? AND id <> ?", email, user.ID).
		Count(&taken).Error; err != nil {
		return fmt.Errorf("user service: check email: %w", err)
	}
	if taken > 0 {
		return apperrors.NewValidation(map[string]string{"email": duplicateEmail})
	}

	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]any{"email": email, "is_verified": false}).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return apperrors.NewValidation(map[string]string{"email": duplicateEmail})
		}
		return fmt.Errorf("user service: change email: %w", err)
	}

	entry := actorEntry(user, "user.email_change", "user:"+user.CollegeID)
	entry.Metadata = map[string]any{"previous": user.Email}
	recordAudit(s.audit, ctx, entry)

	user.Email = email
	user.IsVerified = false
	return nil
}

// Delete removes a user together with every ticket, notification and session
// they own.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id string) error {
	ctx = ensureContext(ctx)
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []struct {
			model  any
			column string
		}{
			{&models.Notification{}, "user_id"},
			{&models.Session{}, "user_id"},
			{&models.Complaint{}, "student_id"},
			{&models.Application{}, "student_id"},
		}
		for _, o := range owned {
			if err := tx.Where(o.column+" = ?", user.ID).Delete(o.model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
	if err != nil {
		return fmt.Errorf("user service: delete user: %w", err)
	}

	recordAudit(s.audit, ctx, actorEntry(actor, "user.delete", "user:"+user.CollegeID))
	return nil
}

// CountByRole reports how many accounts hold each role.
func (s *UserService) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	ctx = ensureContext(ctx)
	var rows []struct {
		Role  models.Role
		Total int64
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("user service: count by role: %w", err)
	}

	counts := make(map[models.Role]int64, len(models.Roles))
	for _, role := range models.Roles {
		counts[role] = 0
	}
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}
