package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/campusfix/campusfix/internal/auth"
	"github.com/campusfix/campusfix/internal/middleware"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/permissions"
	"github.com/campusfix/campusfix/internal/services"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/logger"
	"github.com/campusfix/campusfix/pkg/metrics"
	"github.com/campusfix/campusfix/pkg/response"
)

const authModule = "auth"

var (
	errOTPInvalid = apperrors.New("OTP_INVALID", "The verification code is not valid.", http.StatusBadRequest)
	errOTPExpired = apperrors.New("OTP_EXPIRED", "The verification code has expired. Request a new one.", http.StatusBadRequest)
)

// SessionCookie describes the HttpOnly cookie that carries the access token
// for browser clients.
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
}

// AuthDeps wires AuthHandler.
type AuthDeps struct {
	Users     *services.UserService
	Verifier  *iauth.CredentialVerifier
	Sessions  *iauth.SessionService
	JWT       *iauth.JWTService
	OTP       *iauth.OTPService
	Audit     *services.AuditService
	Cookie    SessionCookie
	LoginPath string
}

// AuthHandler manages registration and the login session lifecycle.
type AuthHandler struct {
	AuthDeps
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(deps AuthDeps) *AuthHandler {
	if deps.Cookie.Name == "" {
		deps.Cookie.Name = middleware.DefaultSessionCookie
	}
	if deps.LoginPath == "" {
		deps.LoginPath = middleware.DefaultLoginPath
	}
	return &AuthHandler{AuthDeps: deps}
}

type loginRequest struct {
	CollegeID string `json:"college_id"`
	Password  string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type otpVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type emailChangeRequest struct {
	Email string `json:"email"`
}

type userPayload struct {
	ID          string     `json:"id"`
	CollegeID   string     `json:"college_id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	Role        string     `json:"role"`
	RoleDisplay string     `json:"role_display"`
	IsSuperuser bool       `json:"is_superuser"`
	IsVerified  bool       `json:"is_verified"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func newUserPayload(user *models.User) userPayload {
	return userPayload{
		ID:          user.ID,
		CollegeID:   user.CollegeID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		PhoneNumber: user.PhoneNumber,
		Role:        string(user.Role),
		RoleDisplay: models.Humanize(string(user.Role)),
		IsSuperuser: user.IsSuperuser,
		IsVerified:  user.IsVerified,
		LastLoginAt: user.LastLoginAt,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.Users.Register(requestContext(c), req); err != nil {
		fail(c, err, authModule, "register", "Registration failed. Please check the form and try again.")
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Registration successful! You can now log in.", gin.H{
		"redirect": h.LoginPath,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := requestContext(c)
	collegeID := strings.TrimSpace(req.CollegeID)

	user, err := h.Verifier.Verify(ctx, collegeID, req.Password)
	if err == nil && !user.IsActive {
		err = iauth.ErrInvalidCredentials
	}
	if err != nil {
		if errors.Is(err, iauth.ErrInvalidCredentials) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			h.audit(c, nil, collegeID, "auth.login", services.AuditFailure)
			response.Error(c, apperrors.ErrInvalidCredentials)
			return
		}
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		fail(c, err, authModule, "login", "An error occurred while signing you in.")
		return
	}

	pair, _, err := h.Sessions.CreateSession(ctx, user, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		fail(c, err, authModule, "login", "An error occurred while signing you in.")
		return
	}
	if err := h.Users.MarkLogin(ctx, user); err != nil {
		logger.WithOperation(authModule, "login").Warn("record last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.audit(c, user, user.CollegeID, "auth.login", services.AuditSuccess)
	h.setSessionCookie(c, pair)

	response.SuccessWithMessage(c, http.StatusOK, "Welcome, "+models.Humanize(string(user.Role))+"!", gin.H{
		"access_token":      pair.AccessToken,
		"refresh_token":     pair.RefreshToken,
		"access_expires_at": pair.AccessExpiresAt,
		"user":              newUserPayload(user),
		"dashboard":         permissions.DashboardFor(user),
	})
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, _, err := h.Sessions.RefreshSession(requestContext(c), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if isSessionError(err) {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		fail(c, err, authModule, "refresh", "An error occurred while refreshing your session.")
		return
	}

	h.setSessionCookie(c, pair)
	response.Success(c, http.StatusOK, pair)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	if err := h.revokeCurrent(c); err != nil {
		fail(c, err, authModule, "logout", "An error occurred while signing you out.")
		return
	}
	h.audit(c, user, user.CollegeID, "auth.logout", services.AuditSuccess)
	h.clearSessionCookie(c)
	response.SuccessWithMessage(c, http.StatusOK, "You have been logged out.", gin.H{"revoked": true})
}

// GET /logout
func (h *AuthHandler) BrowserLogout(c *gin.Context) {
	if err := h.revokeCurrent(c); err != nil {
		logger.WithOperation(authModule, "logout").Warn("revoke session", zap.Error(err))
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusFound, h.LoginPath)
}

// GET /
func (h *AuthHandler) Home(c *gin.Context) {
	if user, ok := middleware.CurrentUser(c); ok {
		c.Redirect(http.StatusFound, permissions.DashboardFor(user))
		return
	}
	c.Redirect(http.StatusFound, h.LoginPath)
}

// GET /login. Signed-in callers go straight to their dashboard; everyone
// else is pointed at the JSON login endpoint.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if user, ok := middleware.CurrentUser(c); ok {
		c.Redirect(http.StatusFound, permissions.DashboardFor(user))
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Please log in.", gin.H{
		"login_endpoint":    "/api/auth/login",
		"register_endpoint": "/api/auth/register",
		"next":              c.Query("next"),
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":      newUserPayload(user),
		"dashboard": permissions.DashboardFor(user),
	})
}

// POST /api/auth/otp/request
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	expires, err := h.OTP.Issue(requestContext(c), user)
	if err != nil {
		fail(c, err, authModule, "otp_request", "An error occurred while sending your verification code.")
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "A verification code has been sent to your email.", gin.H{
		"expires_at": expires,
	})
}

// POST /api/auth/otp/verify
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req otpVerifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.OTP.Verify(requestContext(c), user, req.Code)
	switch {
	case errors.Is(err, iauth.ErrOTPInvalid):
		h.audit(c, user, user.CollegeID, "auth.otp_verify", services.AuditFailure)
		response.Error(c, errOTPInvalid)
		return
	case errors.Is(err, iauth.ErrOTPExpired):
		h.audit(c, user, user.CollegeID, "auth.otp_verify", services.AuditFailure)
		response.Error(c, errOTPExpired)
		return
	case err != nil:
		fail(c, err, authModule, "otp_verify", "An error occurred while checking your verification code.")
		return
	}

	h.audit(c, user, user.CollegeID, "auth.otp_verify", services.AuditSuccess)
	response.SuccessWithMessage(c, http.StatusOK, "Your email address has been verified.", gin.H{"is_verified": true})
}

// PUT /api/auth/email
func (h *AuthHandler) ChangeEmail(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req emailChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := requestContext(c)

	if err := h.Users.ChangeEmail(ctx, user, req.Email); err != nil {
		fail(c, err, authModule, "email_change", "An error occurred while updating your email address.")
		return
	}

	payload := gin.H{"email": user.Email, "is_verified": user.IsVerified}
	if !user.IsVerified && h.OTP != nil {
		expires, err := h.OTP.Issue(ctx, user)
		if err != nil {
			logger.WithOperation(authModule, "email_change").Warn("issue verification code", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			payload["code_expires_at"] = expires
		}
	}
	response.SuccessWithMessage(c, http.StatusOK, "Your email address has been updated.", payload)
}

func (h *AuthHandler) revokeCurrent(c *gin.Context) error {
	sessionID := c.GetString(middleware.CtxSessionIDKey)
	if sessionID == "" {
		return nil
	}
	err := h.Sessions.RevokeSession(requestContext(c), sessionID)
	if err != nil && !isSessionError(err) {
		return err
	}
	return nil
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, pair iauth.TokenPair) {
	maxAge := int(time.Until(pair.AccessExpiresAt).Seconds())
	if h.JWT != nil {
		maxAge = int(h.JWT.TTL().Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, pair.AccessToken, maxAge, "/", h.Cookie.Domain, h.Cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, "", -1, "/", h.Cookie.Domain, h.Cookie.Secure, true)
}

func (h *AuthHandler) audit(c *gin.Context, user *models.User, collegeID, action, result string) {
	if h.Audit == nil {
		return
	}
	entry := services.AuditEntry{
		CollegeID: collegeID,
		Action:    action,
		Resource:  "session",
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if user != nil {
		entry.UserID = &user.ID
	}
	if err := h.Audit.Log(requestContext(c), entry); err != nil {
		logger.WithOperation(authModule, action).Warn("audit write failed", zap.Error(err))
	}
}

func isSessionError(err error) bool {
	return errors.Is(err, iauth.ErrSessionNotFound) ||
		errors.Is(err, iauth.ErrSessionRevoked) ||
		errors.Is(err, iauth.ErrSessionExpired) ||
		errors.Is(err, iauth.ErrSessionInvalidToken)
}
