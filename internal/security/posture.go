// Package security evaluates the deployment's security-relevant settings for
// the administrative posture report.
package security

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/app"
	iauth "github.com/campusfix/campusfix/internal/auth"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/permissions"
)

// CheckStatus captures the outcome of a posture check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

const maxRefreshTTL = 30 * 24 * time.Hour

// Check contains the result of a single verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates all checks with a per-status tally.
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Auditor evaluates the portal's security controls. Missing dependencies
// degrade the affected checks to warnings.
type Auditor struct {
	db  *gorm.DB
	jwt *iauth.JWTService
	cfg *app.Config
	now func() time.Time
}

// NewAuditor constructs an Auditor.
func NewAuditor(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) *Auditor {
	return &Auditor{db: db, jwt: jwt, cfg: cfg, now: time.Now}
}

// WithClock overrides the clock used in results.
func (a *Auditor) WithClock(clock func() time.Time) {
	if clock != nil {
		a.now = clock
	}
}

// Run executes every check.
func (a *Auditor) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []Check{
		a.checkSuperuser(ctx),
		a.checkJWTSecret(),
		a.checkRefreshTTL(),
		a.checkCookie(),
		a.checkCodeDelivery(),
		a.checkSelfRegistration(),
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{CheckedAt: a.now().UTC(), Checks: checks, Summary: summary}
}

func (a *Auditor) checkSuperuser(ctx context.Context) Check {
	const id = "superuser_present"
	if a.db == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Database unavailable; superuser presence not confirmed."}
	}

	var count int64
	if err := a.db.WithContext(ctx).Model(&models.User{}).
		Where("is_superuser = ? AND is_active = ?", true, true).
		Count(&count).Error; err != nil {
		return Check{ID: id, Status: StatusWarn, Message: fmt.Sprintf("Could not count superusers: %v", err)}
	}
	if count == 0 {
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     "No active superuser exists.",
			Remediation: "Set CAMPUSFIX_BOOTSTRAP_ADMIN_COLLEGE_ID and CAMPUSFIX_BOOTSTRAP_ADMIN_PASSWORD and restart.",
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "Active superuser present.", Details: map[string]any{"count": count}}
}

func (a *Auditor) checkJWTSecret() Check {
	const id = "jwt_secret_strength"
	if a.jwt == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Token service not initialised; secret strength unknown."}
	}

	length := a.jwt.SecretLength()
	details := map[string]any{"length": length}
	switch {
	case length < 32:
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     fmt.Sprintf("Signing secret is too short (%d bytes).", length),
			Remediation: "Set CAMPUSFIX_AUTH_JWT_SECRET to a random value of at least 32 bytes.",
			Details:     details,
		}
	case length < 48:
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Signing secret is %d bytes; 48 or more is recommended.", length),
			Remediation: "Lengthen CAMPUSFIX_AUTH_JWT_SECRET.",
			Details:     details,
		}
	}
	return Check{ID: id, Status: StatusPass, Message: fmt.Sprintf("Signing secret is %d bytes.", length), Details: details}
}

func (a *Auditor) checkRefreshTTL() Check {
	const id = "session_refresh_ttl"
	if a.cfg == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Configuration not loaded."}
	}

	ttl := a.cfg.Auth.Session.RefreshTTL
	details := map[string]any{"ttl": ttl.String()}
	switch {
	case ttl <= 0:
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Refresh token lifetime is not configured; the default applies.",
			Remediation: "Set CAMPUSFIX_AUTH_SESSION_REFRESH_TOKEN_TTL.",
		}
	case ttl > maxRefreshTTL:
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Refresh token lifetime %s exceeds %s.", ttl, maxRefreshTTL),
			Remediation: "Shorten the refresh token lifetime to 30 days or less.",
			Details:     details,
		}
	}
	return Check{ID: id, Status: StatusPass, Message: fmt.Sprintf("Refresh tokens live for %s.", ttl), Details: details}
}

func (a *Auditor) checkCookie() Check {
	const id = "secure_session_cookie"
	if a.cfg == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Configuration not loaded."}
	}
	if !a.cfg.Server.Cookie.Secure {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "The browser session cookie is sent over plain HTTP.",
			Remediation: "Serve the portal over HTTPS and set CAMPUSFIX_SERVER_COOKIE_SECURE=true.",
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "The browser session cookie is marked Secure."}
}

func (a *Auditor) checkCodeDelivery() Check {
	const id = "verification_code_delivery"
	if a.cfg == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Configuration not loaded."}
	}
	if !a.cfg.Email.SMTP.Enabled {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "SMTP is disabled; verification codes are written to the server log.",
			Remediation: "Configure email.smtp and enable it.",
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "Verification codes are mailed over SMTP."}
}

func (a *Auditor) checkSelfRegistration() Check {
	const id = "staff_self_registration"
	if a.cfg == nil {
		return Check{ID: id, Status: StatusWarn, Message: "Configuration not loaded."}
	}

	roles := a.cfg.Auth.UserServiceConfig().RegistrationRoles
	if len(roles) == 0 {
		roles = models.Roles
	}

	var staff []string
	for _, role := range roles {
		if permissions.IsStaffRole(role) {
			staff = append(staff, string(role))
		}
	}
	slices.Sort(staff)
	if len(staff) > 0 {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Anyone can register as %s.", strings.Join(staff, ", ")),
			Remediation: "Restrict auth.registration_roles to student and create staff accounts administratively.",
			Details:     map[string]any{"roles": staff},
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "Only students can self-register."}
}
