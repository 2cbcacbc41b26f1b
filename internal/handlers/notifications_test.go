package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/app"
	"github.com/campusfix/campusfix/internal/handlers/testutil"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/notifications"
	"github.com/campusfix/campusfix/internal/services"
)

// seedStatusChange files a complaint as student and has staff move it,
// producing one notification for the student.
func seedStatusChange(t *testing.T, env *testutil.Env, student, staff, status string) string {
	t.Helper()

	created := submitComplaint(t, env, student, waterLeak())
	w := env.Request(http.MethodPost, "/api/complaints/update-status", map[string]string{
		"complaint_id": created.ComplaintID,
		"status":       status,
	}, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return created.ComplaintID
}

func TestNotificationListAndMarkRead(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateUser("STU001", models.RoleStudent)
	env.CreateUser("STU002", models.RoleStudent)
	env.CreateUser("STF001", models.RoleStaff)

	student := env.Login("STU001").AccessToken
	other := env.Login("STU002").AccessToken
	staff := env.Login("STF001").AccessToken

	first := seedStatusChange(t, env, student, staff, "in-progress")
	seedStatusChange(t, env, student, staff, "resolved")

	w := env.Request(http.MethodGet, "/api/notifications", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	require.Equal(t, 2, resp.Meta.Total)

	var items []services.NotificationDTO
	testutil.DecodeInto(t, resp.Data, &items)
	require.Len(t, items, 2)

	var target services.NotificationDTO
	for _, item := range items {
		if item.ReferenceID == first {
			target = item
		}
	}
	require.NotEmpty(t, target.ID)
	require.Equal(t, string(models.NotificationComplaintStatus), target.Type)
	require.False(t, target.IsRead)

	w = env.Request(http.MethodPost, "/api/notifications/"+target.ID+"/read", nil, other)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOTIFICATION_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodPost, "/api/notifications/"+target.ID+"/read", nil, student)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var marked services.NotificationDTO
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &marked)
	require.True(t, marked.IsRead)
	require.NotNil(t, marked.ReadAt)

	w = env.Request(http.MethodGet, "/api/notifications?unread=true", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &items)
	require.Len(t, items, 1)

	w = env.Request(http.MethodPost, "/api/notifications/read-all", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	var updated struct {
		Updated int64 `json:"updated"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, int64(1), updated.Updated)

	w = env.Request(http.MethodGet, "/api/notifications/unread-count", nil, student)
	var count struct {
		UnreadCount int64 `json:"unread_count"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &count)
	require.Zero(t, count.UnreadCount)

	w = env.Request(http.MethodGet, "/api/notifications", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationRoutesDisabled(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithConfig(func(cfg *app.Config) {
		cfg.Notifications.Enabled = false
	}))
	env.CreateUser("STU001", models.RoleStudent)
	env.CreateUser("STF001", models.RoleStaff)
	student := env.Login("STU001").AccessToken

	seedStatusChange(t, env, student, env.Login("STF001").AccessToken, "resolved")

	w := env.Request(http.MethodGet, "/api/notifications", nil, student)
	require.Equal(t, http.StatusNotFound, w.Code)

	var stored int64
	require.NoError(t, env.DB.Model(&models.Notification{}).Count(&stored).Error)
	require.Zero(t, stored)
}

func TestNotificationStream(t *testing.T) {
	env := testutil.NewEnv(t)
	student := env.CreateUser("STU001", models.RoleStudent)
	env.CreateUser("STF001", models.RoleStaff)

	studentToken := env.Login("STU001").AccessToken
	staffToken := env.Login("STF001").AccessToken
	created := submitComplaint(t, env, studentToken, waterLeak())

	server := httptest.NewServer(env.Router)
	t.Cleanup(server.Close)

	streamURL := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/api/notifications/stream?access_token=" + url.QueryEscape(studentToken)
	conn, resp, err := websocket.DefaultDialer.Dial(streamURL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return env.Hub.Connections(student.ID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	w := env.Request(http.MethodPost, "/api/complaints/update-status", map[string]string{
		"complaint_id": created.ComplaintID,
		"status":       "in-progress",
	}, staffToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Event string                   `json:"event"`
		Data  services.NotificationDTO `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, notifications.EventCreated, frame.Event)
	require.Equal(t, created.ComplaintID, frame.Data.ReferenceID)
}

func TestNotificationStreamRejectsQueryTokenOutsideUpgrade(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateUser("STU001", models.RoleStudent)
	token := env.Login("STU001").AccessToken

	w := env.Request(http.MethodGet, "/api/notifications?access_token="+url.QueryEscape(token), nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
