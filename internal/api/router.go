package api

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/app"
	iauth "github.com/campusfix/campusfix/internal/auth"
	"github.com/campusfix/campusfix/internal/events"
	"github.com/campusfix/campusfix/internal/handlers"
	"github.com/campusfix/campusfix/internal/middleware"
	"github.com/campusfix/campusfix/internal/monitoring"
	"github.com/campusfix/campusfix/internal/notifications"
	"github.com/campusfix/campusfix/internal/security"
	"github.com/campusfix/campusfix/internal/services"
	"github.com/campusfix/campusfix/pkg/mail"
)

// Dependencies carries the long-lived collaborators built at start-up.
// Mailer, Events, Hub, RateStore and HealthChecks are optional.
type Dependencies struct {
	DB           *gorm.DB
	Config       *app.Config
	JWT          *iauth.JWTService
	Sessions     *iauth.SessionService
	RateStore    middleware.RateStore
	Mailer       mail.Mailer
	Events       events.Publisher
	Hub          *notifications.Hub
	HealthChecks []monitoring.Check
}

// NewRouter builds the Gin engine, wires middleware and registers the portal routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, errors.New("jwt service must be provided")
	}
	if deps.Sessions == nil {
		return nil, errors.New("session service must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	cfg := deps.Config

	svc, err := buildServices(deps)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics(cfg.Monitoring.Prometheus.Endpoint, "/health", "/api/health"))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{HTTPS: cfg.Server.Cookie.Secure}))
	r.Use(middleware.Authenticate(middleware.AuthConfig{
		JWT:        deps.JWT,
		Sessions:   deps.Sessions,
		Users:      svc.users,
		CookieName: cfg.Server.Cookie.Name,
	}))

	guards := guardSet{cfg: middleware.GuardConfig{LoginPath: cfg.Server.LoginPath}}

	registerHealthRoutes(r, cfg, deps.DB, deps.HealthChecks)

	authHandler := handlers.NewAuthHandler(handlers.AuthDeps{
		Users:    svc.users,
		Verifier: svc.verifier,
		Sessions: deps.Sessions,
		JWT:      deps.JWT,
		OTP:      svc.otp,
		Audit:    svc.audit,
		Cookie: handlers.SessionCookie{
			Name:   cfg.Server.Cookie.Name,
			Domain: cfg.Server.Cookie.Domain,
			Secure: cfg.Server.Cookie.Secure,
		},
		LoginPath: cfg.Server.LoginPath,
	})

	var limiter gin.HandlerFunc
	if cfg.RateLimit.Enabled && deps.RateStore != nil {
		limiter = middleware.RateLimit(middleware.RateLimitConfig{
			Store:    deps.RateStore,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		})
	}

	api := r.Group("/api")

	registerAuthRoutes(r, api, authRouteDeps{
		Handler: authHandler,
		Guards:  guards,
		Limiter: limiter,
	})
	registerComplaintRoutes(api, handlers.NewComplaintHandler(svc.complaints), guards)
	registerApplicationRoutes(api, handlers.NewApplicationHandler(svc.applications), guards)
	if svc.notifications != nil {
		registerNotificationRoutes(api, handlers.NewNotificationHandler(svc.notifications, deps.Hub), guards)
	}

	dashboardHandler := handlers.NewDashboardHandler(svc.dashboard)
	registerDashboardRoutes(r, api, dashboardHandler, guards)
	registerAdminRoutes(r, api, adminRouteDeps{
		Admin:     handlers.NewAdminHandler(svc.users, svc.audit, security.NewAuditor(deps.DB, deps.JWT, cfg)),
		Dashboard: dashboardHandler,
		Guards:    guards,
	})

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

type serviceSet struct {
	audit         *services.AuditService
	users         *services.UserService
	notifications *services.NotificationService
	complaints    *services.ComplaintService
	applications  *services.ApplicationService
	dashboard     *services.DashboardService
	verifier      *iauth.CredentialVerifier
	otp           *iauth.OTPService
}

func buildServices(deps Dependencies) (*serviceSet, error) {
	cfg := deps.Config
	set := &serviceSet{}

	var err error
	if set.audit, err = services.NewAuditService(deps.DB); err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}
	if set.users, err = services.NewUserService(deps.DB, set.audit, cfg.Auth.UserServiceConfig()); err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}
	if cfg.Notifications.Enabled {
		if set.notifications, err = services.NewNotificationService(deps.DB, deps.Hub); err != nil {
			return nil, fmt.Errorf("notification service: %w", err)
		}
	}

	ticketOpts := services.TicketOptions{
		Policy:        cfg.Tickets.TransitionPolicy(),
		Notifications: set.notifications,
		Events:        deps.Events,
		Audit:         set.audit,
	}
	if set.complaints, err = services.NewComplaintService(deps.DB, ticketOpts); err != nil {
		return nil, fmt.Errorf("complaint service: %w", err)
	}
	if set.applications, err = services.NewApplicationService(deps.DB, ticketOpts); err != nil {
		return nil, fmt.Errorf("application service: %w", err)
	}
	if set.dashboard, err = services.NewDashboardService(set.users, set.complaints, set.applications, set.notifications, cfg.Notifications.DashboardLimit); err != nil {
		return nil, fmt.Errorf("dashboard service: %w", err)
	}
	if set.verifier, err = iauth.NewCredentialVerifier(deps.DB); err != nil {
		return nil, fmt.Errorf("credential verifier: %w", err)
	}
	if set.otp, err = iauth.NewOTPService(deps.DB, deps.Mailer, cfg.Auth.OTPServiceConfig()); err != nil {
		return nil, fmt.Errorf("otp service: %w", err)
	}
	return set, nil
}
