package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/handlers/testutil"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/security"
	"github.com/campusfix/campusfix/internal/services"
)

func TestDashboardSummaries(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateUser("STU001", models.RoleStudent)
	env.CreateUser("STF001", models.RoleStaff)
	env.CreateUser("DSW001", models.RoleDSW)
	env.CreateSuperuser("ADM001")

	student := env.Login("STU001").AccessToken
	staff := env.Login("STF001").AccessToken

	seedStatusChange(t, env, student, staff, "in-progress")
	submitComplaint(t, env, student, waterLeak())
	submitApplication(t, env, student, "dsw")

	dashboard := func(token string) services.Dashboard {
		t.Helper()
		w := env.Request(http.MethodGet, "/api/dashboard", nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var board services.Dashboard
		testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &board)
		return board
	}

	board := dashboard(student)
	require.Equal(t, "/dashboard/student", board.Route)
	require.Equal(t, int64(1), board.Complaints["pending"])
	require.Equal(t, int64(1), board.Complaints["in-progress"])
	require.Equal(t, int64(1), board.Applications["pending"])
	require.Equal(t, int64(1), board.UnreadCount)
	require.Len(t, board.Notifications, 1)

	board = dashboard(staff)
	require.Equal(t, "/dashboard/staff", board.Route)
	require.Equal(t, "staff", board.Department)
	require.NotNil(t, board.Intake)
	require.Equal(t, int64(1), *board.Intake)
	require.Zero(t, board.Applications["pending"])

	board = dashboard(env.Login("DSW001").AccessToken)
	require.Equal(t, "/dashboard/dsw", board.Route)
	require.Nil(t, board.Intake)
	require.Zero(t, board.Applications["pending"], "unverified applications stay hidden")

	board = dashboard(env.Login("ADM001").AccessToken)
	require.Equal(t, "/admin/", board.Route)
	require.Equal(t, int64(2), board.Complaints["pending"]+board.Complaints["in-progress"])
	require.Equal(t, int64(1), board.Users[models.RoleStudent])
}

func TestBrowserDashboardGuards(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateUser("STU001", models.RoleStudent)
	env.CreateUser("PRV001", models.RoleProvost)
	env.CreateSuperuser("ADM001")

	student := env.Login("STU001").Cookie
	provost := env.Login("PRV001").Cookie
	admin := env.Login("ADM001").Cookie
	require.NotNil(t, student)

	w := env.BrowserRequest(http.MethodGet, "/dashboard/provost", nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?next="+url.QueryEscape("/dashboard/provost"), w.Header().Get("Location"))

	w = env.BrowserRequest(http.MethodGet, "/dashboard/provost", student)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = env.BrowserRequest(http.MethodGet, "/dashboard/provost", provost)
	require.Equal(t, http.StatusOK, w.Code)

	// Superusers pass every role guard.
	w = env.BrowserRequest(http.MethodGet, "/dashboard/provost", admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.BrowserRequest(http.MethodGet, "/admin/", provost)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.BrowserRequest(http.MethodGet, "/admin/", admin)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuditLog(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateUser("STU001", models.RoleStudent)
	env.CreateSuperuser("ADM001")

	student := env.Login("STU001").AccessToken
	admin := env.Login("ADM001").AccessToken
	submitComplaint(t, env, student, waterLeak())

	w := env.Request(http.MethodGet, "/api/admin/audit", nil, student)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/admin/audit?action=complaint.submit", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, 1, resp.Meta.Total)

	var logs []models.AuditLog
	testutil.DecodeInto(t, resp.Data, &logs)
	require.Len(t, logs, 1)
	require.Equal(t, "complaint:C001", logs[0].Resource)
	require.Equal(t, "STU001", logs[0].CollegeID)

	w = env.Request(http.MethodGet, "/api/admin/audit?action=auth.login&per_page=1", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	resp = testutil.DecodeResponse(t, w)
	require.Equal(t, 2, resp.Meta.Total)
	require.Equal(t, 2, resp.Meta.TotalPages)
}

func TestAdminDeleteUserCascades(t *testing.T) {
	env := testutil.NewEnv(t)
	victim := env.CreateUser("STU001", models.RoleStudent)
	env.CreateUser("STF001", models.RoleStaff)
	env.CreateSuperuser("ADM001")

	student := env.Login("STU001")
	staff := env.Login("STF001").AccessToken
	admin := env.Login("ADM001").AccessToken

	seedStatusChange(t, env, student.AccessToken, staff, "resolved")
	submitApplication(t, env, student.AccessToken, "staff")

	w := env.Request(http.MethodDelete, "/api/admin/users/"+victim.ID, nil, staff)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodDelete, "/api/admin/users/"+victim.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "User deleted successfully.", testutil.DecodeResponse(t, w).Message)

	for _, model := range []any{&models.Complaint{}, &models.Application{}, &models.Notification{}} {
		var count int64
		require.NoError(t, env.DB.Model(model).Where("1 = 1").Count(&count).Error)
		require.Zero(t, count)
	}

	// Revoked along with the account, so the old token no longer resolves.
	w = env.Request(http.MethodGet, "/api/auth/me", nil, student.AccessToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodDelete, "/api/admin/users/"+victim.ID, nil, admin)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "USER_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
}

func TestAdminSecurityPosture(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateUser("STF001", models.RoleStaff)
	env.CreateSuperuser("ADM001")

	w := env.Request(http.MethodGet, "/api/admin/security", nil, env.Login("STF001").AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/admin/security", nil, env.Login("ADM001").AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report security.Result
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &report)
	require.Len(t, report.Checks, 6)
	require.Zero(t, report.Summary["fail"])

	statuses := make(map[string]security.CheckStatus, len(report.Checks))
	for _, check := range report.Checks {
		statuses[check.ID] = check.Status
	}
	require.Equal(t, security.StatusPass, statuses["superuser_present"])
	require.Equal(t, security.StatusWarn, statuses["jwt_secret_strength"])
	require.Equal(t, security.StatusWarn, statuses["staff_self_registration"])
}
