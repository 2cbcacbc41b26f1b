package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/api"
	"github.com/campusfix/campusfix/internal/app"
	"github.com/campusfix/campusfix/internal/app/maintenance"
	iauth "github.com/campusfix/campusfix/internal/auth"
	"github.com/campusfix/campusfix/internal/cache"
	"github.com/campusfix/campusfix/internal/database"
	"github.com/campusfix/campusfix/internal/events"
	"github.com/campusfix/campusfix/internal/middleware"
	"github.com/campusfix/campusfix/internal/monitoring"
	"github.com/campusfix/campusfix/internal/monitoring/checks"
	"github.com/campusfix/campusfix/internal/notifications"
	"github.com/campusfix/campusfix/internal/services"
	"github.com/campusfix/campusfix/pkg/logger"
	"github.com/campusfix/campusfix/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Redis      *cache.RedisStore
	Events     events.Publisher
	SessionSvc *iauth.SessionService
	Cleaner    *maintenance.Cleaner
	RateStore  middleware.RateStore
	Router     *gin.Engine
}

// bootstrapRuntime initialises databases, caches, brokers, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, opts options, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if opts.seedSamples {
		result, err := database.SeedSamples(ctx, stack.DB, nil)
		if err != nil {
			return nil, fmt.Errorf("seed samples: %w", err)
		}
		log.Info("sample data created",
			zap.Int("users", result.Users),
			zap.Int("complaints", result.Complaints),
			zap.String("password", database.SamplePassword),
		)
	}

	dbStore := cache.NewDatabaseStore(stack.DB)

	var healthChecks []monitoring.Check
	if redisCfg, ok := cfg.Cache.RedisClientConfig(); ok {
		if stack.Redis, err = cache.NewRedisStore(ctx, redisCfg); err != nil {
			log.Warn("redis unavailable; falling back to database-backed operations", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", redisCfg.Address))
		}
		if stack.Redis != nil {
			healthChecks = append(healthChecks, checks.Redis(stack.Redis, redisCfg.Timeout))
		} else {
			healthChecks = append(healthChecks, checks.Redis(nil, 0))
		}
	}

	var sharedStore cache.Store = dbStore
	if stack.Redis != nil {
		sharedStore = stack.Redis
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionCfg := cfg.Auth.SessionServiceConfig()
	sessionCfg.Cache = iauth.NewStoreSessionCache(sharedStore)
	stack.SessionSvc, err = iauth.NewSessionService(stack.DB, jwtSvc, sessionCfg)
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}

	// Without redis, counters stay in process and the cleaner sweeps them.
	var memoryRates *middleware.MemoryRateStore
	switch {
	case !cfg.RateLimit.Enabled:
	case stack.Redis != nil:
		stack.RateStore = middleware.NewStoreRateStore(stack.Redis)
	default:
		memoryRates = middleware.NewMemoryRateStore()
		stack.RateStore = memoryRates
	}

	mailer, err := buildMailer(cfg)
	if err != nil {
		return nil, err
	}

	stack.Events, err = events.New(ctx, cfg.Events.PublisherConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise event publisher: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:           stack.DB,
		Config:       cfg,
		JWT:          jwtSvc,
		Sessions:     stack.SessionSvc,
		RateStore:    stack.RateStore,
		Mailer:       mailer,
		Events:       stack.Events,
		Hub:          notifications.NewHub(),
		HealthChecks: healthChecks,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	if cfg.Maintenance.Enabled {
		if stack.Cleaner, err = buildCleaner(cfg, stack, dbStore, memoryRates, mailer); err != nil {
			return nil, err
		}
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	success = true
	return stack, nil
}

func buildMailer(cfg *app.Config) (mail.Mailer, error) {
	if !cfg.Email.SMTP.Enabled {
		return mail.LogMailer{Log: logger.WithModule("mail")}, nil
	}
	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise smtp mailer: %w", err)
	}
	return mailer, nil
}

func buildCleaner(cfg *app.Config, stack *runtimeStack, dbStore *cache.DatabaseStore, rates *middleware.MemoryRateStore, mailer mail.Mailer) (*maintenance.Cleaner, error) {
	auditSvc, err := services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}
	otpSvc, err := iauth.NewOTPService(stack.DB, mailer, cfg.Auth.OTPServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise otp service: %w", err)
	}

	m := cfg.Maintenance
	cleanerOpts := []maintenance.Option{
		maintenance.WithOTP(otpSvc),
		maintenance.WithCacheStore(dbStore),
		maintenance.WithAuditRetentionDays(m.AuditRetentionDays),
		maintenance.WithNotificationRetention(m.NotificationRetention),
		maintenance.WithSessionSchedule(m.SessionSchedule),
		maintenance.WithAuditSchedule(m.AuditSchedule),
		maintenance.WithNotificationSchedule(m.NotificationSchedule),
		maintenance.WithCacheSchedule(m.CacheSchedule),
	}
	if rates != nil {
		cleanerOpts = append(cleanerOpts, maintenance.WithSweepers(rates))
	}
	if cfg.Notifications.Enabled {
		notificationSvc, err := services.NewNotificationService(stack.DB, nil)
		if err != nil {
			return nil, fmt.Errorf("initialise notification service: %w", err)
		}
		cleanerOpts = append(cleanerOpts, maintenance.WithNotifications(notificationSvc))
	}

	return maintenance.NewCleaner(stack.SessionSvc, auditSvc, cleanerOpts...), nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Events != nil {
		if err := s.Events.Close(); err != nil {
			log.Warn("event publisher shutdown", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	admin := cfg.Bootstrap.Admin
	if err := database.AutoMigrateAndSeed(db, database.SeedConfig{
		AdminCollegeID: admin.CollegeID,
		AdminEmail:     admin.Email,
		AdminPassword:  admin.Password,
	}); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:            strings.TrimSpace(cfg.Database.Path),
		DSN:             strings.TrimSpace(cfg.Database.DSN),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	var auth app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		auth = cfg.Database.Postgres
	case "mysql", "mariadb":
		auth = cfg.Database.MySQL
	default:
		// Leave driver as-is to surface unsupported driver error during open.
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = strings.TrimSpace(auth.Password)
	dbCfg.Options = auth.Options
	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
