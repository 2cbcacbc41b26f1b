package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/database/testutil"
	"github.com/campusfix/campusfix/internal/models"
)

func TestCredentialVerifier(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := createUser(t, db, "STU001", models.RoleStudent)

	verifier, err := NewCredentialVerifier(db)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := verifier.Verify(ctx, "STU001", "password123")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	got, err = verifier.Verify(ctx, " STU001 ", "password123")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	cases := []struct {
		name      string
		collegeID string
		password  string
	}{
		{name: "wrong password", collegeID: "STU001", password: "password124"},
		{name: "unknown id", collegeID: "STU999", password: "password123"},
		{name: "empty id", collegeID: "", password: "password123"},
		{name: "empty password", collegeID: "STU001", password: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := verifier.Verify(ctx, tc.collegeID, tc.password)
			require.ErrorIs(t, err, ErrInvalidCredentials)
			require.Nil(t, got)
		})
	}

	var reloaded models.User
	require.NoError(t, db.Take(&reloaded, "id = ?", user.ID).Error)
	require.Nil(t, reloaded.LastLoginAt)
}

func TestNewCredentialVerifierRequiresDB(t *testing.T) {
	_, err := NewCredentialVerifier(nil)
	require.Error(t, err)
}
