package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/api"
	"github.com/campusfix/campusfix/internal/app"
	iauth "github.com/campusfix/campusfix/internal/auth"
	sharedtestutil "github.com/campusfix/campusfix/internal/database/testutil"
	"github.com/campusfix/campusfix/internal/events"
	"github.com/campusfix/campusfix/internal/middleware"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/monitoring"
	"github.com/campusfix/campusfix/internal/notifications"
	"github.com/campusfix/campusfix/pkg/crypto"
	"github.com/campusfix/campusfix/pkg/mail"
	"github.com/campusfix/campusfix/pkg/response"
)

// DefaultPassword is the password given to users created through the Env helpers.
const DefaultPassword = "campus-pass-123"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	Config   *app.Config
	JWT      *iauth.JWTService
	Sessions *iauth.SessionService
	Hub      *notifications.Hub
	Mailer   *RecordingMailer
}

// Option adjusts the configuration or collaborators before the router is built.
type Option func(*envSettings)

type envSettings struct {
	cfg       *app.Config
	publisher events.Publisher
	checks    []monitoring.Check
}

// WithConfig mutates the default test configuration.
func WithConfig(fn func(*app.Config)) Option {
	return func(s *envSettings) {
		fn(s.cfg)
	}
}

// WithPublisher routes ticket lifecycle events to publisher.
func WithPublisher(publisher events.Publisher) Option {
	return func(s *envSettings) {
		s.publisher = publisher
	}
}

// WithHealthChecks registers extra readiness probes next to the database probe.
func WithHealthChecks(checks ...monitoring.Check) Option {
	return func(s *envSettings) {
		s.checks = append(s.checks, checks...)
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	settings := &envSettings{cfg: &app.Config{
		Server: app.ServerConfig{
			LoginPath: "/login",
			Cookie:    app.CookieConfig{Name: middleware.DefaultSessionCookie},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: jwtSecret,
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			Session: app.SessionSettings{
				RefreshTTL:    24 * time.Hour,
				RefreshLength: 48,
			},
			OTP: app.OTPSettings{TTL: 10 * time.Minute},
		},
		Tickets:       app.TicketsConfig{StrictTransitions: true},
		Notifications: app.NotificationConfig{Enabled: true, DashboardLimit: 5},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
		RateLimit: app.RateLimitConfig{Enabled: true, Requests: 100, Window: time.Minute},
	}}
	for _, opt := range opts {
		opt(settings)
	}
	cfg := settings.cfg

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, cfg.Auth.SessionServiceConfig())
	require.NoError(t, err)

	hub := notifications.NewHub()
	mailer := &RecordingMailer{}

	router, err := api.NewRouter(api.Dependencies{
		DB:           db,
		Config:       cfg,
		JWT:          jwtSvc,
		Sessions:     sessionSvc,
		RateStore:    middleware.NewMemoryRateStore(),
		Mailer:       mailer,
		Events:       settings.publisher,
		Hub:          hub,
		HealthChecks: settings.checks,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		Config:   cfg,
		JWT:      jwtSvc,
		Sessions: sessionSvc,
		Hub:      hub,
		Mailer:   mailer,
	}
}

// CreateUser inserts an active, verified user holding role.
func (e *Env) CreateUser(collegeID string, role models.Role) *models.User {
	e.T.Helper()

	hashed, err := crypto.HashPassword(DefaultPassword)
	require.NoError(e.T, err)

	user := &models.User{
		CollegeID:    collegeID,
		Email:        strings.ToLower(collegeID) + "@amu.ac.in",
		PasswordHash: hashed,
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		IsActive:     true,
		IsVerified:   true,
	}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// CreateSuperuser inserts an active superuser.
func (e *Env) CreateSuperuser(collegeID string) *models.User {
	e.T.Helper()

	user := e.CreateUser(collegeID, models.RoleStaff)
	require.NoError(e.T, e.DB.Model(user).Update("is_superuser", true).Error)
	user.IsSuperuser = true
	return user
}

// UserPayload captures the subset of user fields returned from auth endpoints.
type UserPayload struct {
	ID          string `json:"id"`
	CollegeID   string `json:"college_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	RoleDisplay string `json:"role_display"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	AccessToken     string       `json:"access_token"`
	RefreshToken    string       `json:"refresh_token"`
	AccessExpiresAt time.Time    `json:"access_expires_at"`
	Dashboard       string       `json:"dashboard"`
	User            UserPayload  `json:"user"`
	Cookie          *http.Cookie `json:"-"`
}

// Login authenticates with college id and DefaultPassword and returns the issued tokens.
func (e *Env) Login(collegeID string) LoginResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"college_id": collegeID,
		"password":   DefaultPassword,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.AccessToken)
	require.NotEmpty(e.T, result.RefreshToken)
	require.Equal(e.T, collegeID, result.User.CollegeID)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == e.Config.Server.Cookie.Name {
			result.Cookie = cookie
		}
	}
	return result
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// BrowserRequest issues a page request the way a browser would: no JSON
// headers, authenticated only by the session cookie when one is given.
func (e *Env) BrowserRequest(method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()

	req, err := http.NewRequest(method, path, nil)
	require.NoError(e.T, err)
	req.Header.Set("Accept", "text/html")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// RecordingMailer keeps every message it is asked to send.
type RecordingMailer struct {
	Messages []mail.Message
}

// Send records msg.
func (m *RecordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.Messages = append(m.Messages, msg)
	return nil
}
