package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/campusfix/campusfix/internal/auth"
	"github.com/campusfix/campusfix/internal/services"
	"github.com/campusfix/campusfix/pkg/logger"
)

const (
	defaultAuditRetentionDays    = 90
	defaultNotificationRetention = 30 * 24 * time.Hour
	defaultSessionSpec           = "@hourly"
	defaultAuditSpec             = "@daily"
	defaultNotificationSpec      = "@daily"
	defaultCacheSpec             = "@every 10m"
)

// ExpiredPurger removes expired rows from a TTL-backed store.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper drops expired entries from an in-memory store.
type Sweeper interface {
	Sweep() int
}

// Cleaner coordinates background maintenance: expired sessions and
// verification codes, stale audit entries, read notifications, and expired
// cache rows.
type Cleaner struct {
	sessions      *iauth.SessionService
	otp           *iauth.OTPService
	audit         *services.AuditService
	notifications *services.NotificationService
	cache         ExpiredPurger
	sweepers      []Sweeper

	cron *cron.Cron
	log  *zap.Logger

	retention             int
	notificationRetention time.Duration

	sessionSchedule      string
	auditSchedule        string
	notificationSchedule string
	cacheSchedule        string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithOTP clears verification codes older than their TTL alongside sessions.
func WithOTP(otp *iauth.OTPService) Option {
	return func(cleaner *Cleaner) {
		cleaner.otp = otp
	}
}

// WithNotifications purges read notifications older than the retention window.
func WithNotifications(svc *services.NotificationService) Option {
	return func(cleaner *Cleaner) {
		cleaner.notifications = svc
	}
}

// WithCacheStore purges expired rows from a database-backed cache.
func WithCacheStore(store ExpiredPurger) Option {
	return func(cleaner *Cleaner) {
		cleaner.cache = store
	}
}

// WithSweepers registers in-memory stores swept on the cache schedule.
func WithSweepers(sweepers ...Sweeper) Option {
	return func(cleaner *Cleaner) {
		for _, s := range sweepers {
			if s != nil {
				cleaner.sweepers = append(cleaner.sweepers, s)
			}
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithNotificationRetention adjusts how long read notifications are kept.
func WithNotificationRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.notificationRetention = d
		}
	}
}

// WithSessionSchedule overrides the cron specification for session and code cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithNotificationSchedule overrides the cron specification for notification purges.
func WithNotificationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.notificationSchedule = spec
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache purges and sweeps.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding cleanup job being skipped.
func NewCleaner(sessions *iauth.SessionService, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions:              sessions,
		audit:                 audit,
		retention:             defaultAuditRetentionDays,
		notificationRetention: defaultNotificationRetention,
		sessionSchedule:       defaultSessionSpec,
		auditSchedule:         defaultAuditSpec,
		notificationSchedule:  defaultNotificationSpec,
		cacheSchedule:         defaultCacheSpec,
		log:                   logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) enabled() bool {
	return c.sessions != nil || c.otp != nil || c.audit != nil ||
		c.notifications != nil || c.cache != nil || len(c.sweepers) > 0
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled() {
		return nil
	}

	jobs := []struct {
		spec   string
		active bool
		run    func(context.Context) error
	}{
		{c.sessionSchedule, c.sessions != nil || c.otp != nil, c.cleanupCredentials},
		{c.auditSchedule, c.audit != nil, c.cleanupAudit},
		{c.notificationSchedule, c.notifications != nil, c.cleanupNotifications},
		{c.cacheSchedule, c.cache != nil || len(c.sweepers) > 0, c.cleanupCache},
	}

	for _, job := range jobs {
		if !job.active {
			continue
		}
		run := job.run
		if _, err := c.cron.AddFunc(job.spec, func() {
			if err := run(context.Background()); err != nil {
				c.log.Warn("maintenance job failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	errs = multierr.Append(errs, c.cleanupCredentials(ctx))
	errs = multierr.Append(errs, c.cleanupAudit(ctx))
	errs = multierr.Append(errs, c.cleanupNotifications(ctx))
	errs = multierr.Append(errs, c.cleanupCache(ctx))
	return errs
}

func (c *Cleaner) cleanupCredentials(ctx context.Context) error {
	var errs error
	if c.sessions != nil {
		removed, err := c.sessions.CleanupExpired(ctx)
		errs = multierr.Append(errs, err)
		c.report("sessions", removed, err)
	}
	if c.otp != nil {
		cleared, err := c.otp.ClearExpired(ctx)
		errs = multierr.Append(errs, err)
		c.report("verification codes", cleared, err)
	}
	return errs
}

func (c *Cleaner) cleanupAudit(ctx context.Context) error {
	if c.audit == nil || c.retention <= 0 {
		return nil
	}
	removed, err := c.audit.CleanupOlderThan(ctx, c.retention)
	c.report("audit entries", removed, err)
	return err
}

func (c *Cleaner) cleanupNotifications(ctx context.Context) error {
	if c.notifications == nil {
		return nil
	}
	removed, err := c.notifications.PurgeRead(ctx, c.notificationRetention)
	c.report("notifications", removed, err)
	return err
}

func (c *Cleaner) cleanupCache(ctx context.Context) error {
	var err error
	if c.cache != nil {
		var removed int64
		removed, err = c.cache.PurgeExpired(ctx)
		c.report("cache entries", removed, err)
	}
	for _, s := range c.sweepers {
		c.report("rate limit buckets", int64(s.Sweep()), nil)
	}
	return err
}

func (c *Cleaner) report(what string, removed int64, err error) {
	if err != nil || removed == 0 {
		return
	}
	c.log.Debug("maintenance removed records", zap.String("target", what), zap.Int64("count", removed))
}
