package security

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/app"
	iauth "github.com/campusfix/campusfix/internal/auth"
	"github.com/campusfix/campusfix/internal/database/testutil"
	"github.com/campusfix/campusfix/internal/models"
)

func checkByID(t *testing.T, result Result, id string) Check {
	t.Helper()
	for _, check := range result.Checks {
		if check.ID == id {
			return check
		}
	}
	t.Fatalf("check %s missing", id)
	return Check{}
}

func hardenedConfig() *app.Config {
	return &app.Config{
		Server: app.ServerConfig{Cookie: app.CookieConfig{Secure: true}},
		Auth: app.AuthConfig{
			Session:           app.SessionSettings{RefreshTTL: 7 * 24 * time.Hour},
			RegistrationRoles: []string{"student"},
		},
		Email: app.EmailConfig{SMTP: app.SMTPConfig{Enabled: true}},
	}
}

func TestAuditorAllPass(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	require.NoError(t, db.Create(&models.User{
		CollegeID:    "ADM001",
		Email:        "adm001@campus.test",
		PasswordHash: "hash",
		Role:         models.RoleStaff,
		IsSuperuser:  true,
		IsActive:     true,
	}).Error)

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: strings.Repeat("k", 64)})
	require.NoError(t, err)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auditor := NewAuditor(db, jwt, hardenedConfig())
	auditor.WithClock(func() time.Time { return fixed })

	result := auditor.Run(context.Background())
	require.Equal(t, fixed, result.CheckedAt)
	require.Len(t, result.Checks, 6)
	require.Equal(t, 6, result.Summary["pass"], result.Checks)
	require.Zero(t, result.Summary["warn"])
	require.Zero(t, result.Summary["fail"])
}

func TestAuditorFlagsWeakSettings(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "short-secret"})
	require.NoError(t, err)

	cfg := &app.Config{
		Auth: app.AuthConfig{Session: app.SessionSettings{RefreshTTL: 90 * 24 * time.Hour}},
	}
	result := NewAuditor(db, jwt, cfg).Run(context.Background())

	require.Equal(t, StatusFail, checkByID(t, result, "superuser_present").Status)
	require.Equal(t, StatusFail, checkByID(t, result, "jwt_secret_strength").Status)
	require.Equal(t, StatusWarn, checkByID(t, result, "session_refresh_ttl").Status)
	require.Equal(t, StatusWarn, checkByID(t, result, "secure_session_cookie").Status)
	require.Equal(t, StatusWarn, checkByID(t, result, "verification_code_delivery").Status)

	// No restriction means every role may self-register.
	registration := checkByID(t, result, "staff_self_registration")
	require.Equal(t, StatusWarn, registration.Status)
	require.Equal(t, map[string]any{"roles": []string{"dsw", "exam_controller", "provost", "staff"}}, registration.Details)

	require.Equal(t, 2, result.Summary["fail"])
	require.Equal(t, 4, result.Summary["warn"])
}

func TestAuditorWithoutDependencies(t *testing.T) {
	result := NewAuditor(nil, nil, nil).Run(context.Background())
	require.Equal(t, 6, result.Summary["warn"])
}
