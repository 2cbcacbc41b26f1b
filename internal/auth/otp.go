package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/crypto"
	"github.com/campusfix/campusfix/pkg/logger"
	"github.com/campusfix/campusfix/pkg/mail"
)

// DefaultOTPTTL is how long an issued verification code stays valid.
const DefaultOTPTTL = 10 * time.Minute

var (
	// ErrOTPInvalid is returned for a wrong or missing code.
	ErrOTPInvalid = errors.New("otp: invalid code")
	// ErrOTPExpired is returned when the stored code is older than the TTL.
	ErrOTPExpired = errors.New("otp: code expired")
)

// OTPConfig tunes the verification code issuer.
type OTPConfig struct {
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// OTPService issues and checks the six-digit codes stored on the user row.
type OTPService struct {
	db     *gorm.DB
	mailer mail.Mailer
	issuer string
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// NewOTPService builds an OTPService. mailer may be nil, in which case codes
// are only stored.
func NewOTPService(db *gorm.DB, mailer mail.Mailer, cfg OTPConfig) (*OTPService, error) {
	if db == nil {
		return nil, errors.New("otp service: db is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "CampusFix"
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}
	return &OTPService{db: db, mailer: mailer, issuer: issuer, ttl: ttl, now: clock, log: logger.WithModule("otp")}, nil
}

// Issue generates a new code for user, stores it, and mails it. Delivery
// failures are logged; the stored code remains valid.
func (s *OTPService) Issue(ctx context.Context, user *models.User) (time.Time, error) {
	if user == nil || user.ID == "" {
		return time.Time{}, errors.New("otp service: user is required")
	}

	now := s.now()
	code, err := s.generate(user, now)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]any{"otp_code": code, "otp_created_at": now}).Error; err != nil {
		return time.Time{}, fmt.Errorf("otp service: store code: %w", err)
	}
	user.OTPCode = code
	user.OTPCreatedAt = &now

	if s.mailer != nil {
		msg := mail.VerificationCodeMessage(user.Email, user.FullName(), code, s.ttl)
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.log.Warn("verification code delivery failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return now.Add(s.ttl), nil
}

// Verify checks code against the stored one. On success the user is marked
// verified and the code is cleared so it cannot be replayed.
func (s *OTPService) Verify(ctx context.Context, user *models.User, code string) error {
	if user == nil || user.ID == "" {
		return errors.New("otp service: user is required")
	}

	var stored models.User
	if err := s.db.WithContext(ctx).Select("id", "otp_code", "otp_created_at").Take(&stored, "id = ?", user.ID).Error; err != nil {
		return fmt.Errorf("otp service: load user: %w", err)
	}

	code = strings.TrimSpace(code)
	if stored.OTPCode == "" || stored.OTPCreatedAt == nil || code == "" {
		return ErrOTPInvalid
	}
	if s.now().Sub(*stored.OTPCreatedAt) > s.ttl {
		return ErrOTPExpired
	}
	if !crypto.ConstantTimeEqual(stored.OTPCode, code) {
		return ErrOTPInvalid
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]any{"otp_code": "", "otp_created_at": nil, "is_verified": true}).Error; err != nil {
		return fmt.Errorf("otp service: mark verified: %w", err)
	}
	user.OTPCode = ""
	user.OTPCreatedAt = nil
	user.IsVerified = true
	return nil
}

// ClearExpired wipes codes older than the TTL.
func (s *OTPService) ClearExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("otp_created_at IS NOT NULL AND otp_created_at < ?", s.now().Add(-s.ttl)).
		Updates(map[string]any{"otp_code": "", "otp_created_at": nil})
	if res.Error != nil {
		return 0, fmt.Errorf("otp service: clear expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// generate derives a code from a fresh per-issue TOTP secret.
func (s *OTPService) generate(user *models.User, at time.Time) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.CollegeID,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("otp service: generate secret: %w", err)
	}
	code, err := totp.GenerateCodeCustom(key.Secret(), at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("otp service: generate code: %w", err)
	}
	return code, nil
}
