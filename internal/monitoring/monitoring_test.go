package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/campusfix/campusfix/internal/database/testutil"
	"github.com/campusfix/campusfix/internal/monitoring"
	"github.com/campusfix/campusfix/internal/monitoring/checks"
)

type pinger struct {
	err error
}

func (p pinger) Ping(context.Context) error {
	return p.err
}

func TestHealthAllUp(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	health := monitoring.NewHealth(
		checks.Database(db, time.Second),
		checks.Redis(pinger{}, time.Second),
	)

	report := health.Evaluate(context.Background())
	require.True(t, report.Success)
	require.Equal(t, monitoring.StatusUp, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "database", report.Checks[0].Component)
	require.Equal(t, "redis", report.Checks[1].Component)
	require.False(t, report.CheckedAt.IsZero())
}

func TestHealthRedisFailureDegrades(t *testing.T) {
	health := monitoring.NewHealth(checks.Redis(pinger{err: errors.New("connection refused")}, time.Second))

	report := health.Evaluate(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Equal(t, "connection refused", report.Checks[0].Details)
}

func TestHealthUnmigratedDatabaseDegrades(t *testing.T) {
	health := monitoring.NewHealth(checks.Database(testutil.MustOpenTestDB(t), time.Second))

	report := health.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Contains(t, report.Checks[0].Details, "run migrations")
}

func TestHealthDownWins(t *testing.T) {
	health := monitoring.NewHealth(
		checks.Redis(nil, 0),
		checks.Database(nil, 0),
		monitoring.Check{Run: func(context.Context) monitoring.ProbeResult {
			return monitoring.ProbeResult{Status: monitoring.StatusDown}
		}},
	)

	report := health.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Len(t, report.Checks, 2, "unnamed checks are ignored")
	require.Equal(t, "database not configured", report.Checks[1].Details)
}

func TestHealthRecoversPanickingProbe(t *testing.T) {
	health := monitoring.NewHealth(monitoring.NewCheck("broker", func(context.Context) monitoring.ProbeResult {
		panic("boom")
	}))

	report := health.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "broker", report.Checks[0].Component)
	require.Equal(t, "boom", report.Checks[0].Details)
}

func TestResultFromError(t *testing.T) {
	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError("db", nil, -time.Second).Status)
	require.Equal(t, monitoring.StatusDegraded, monitoring.ResultFromError("db", context.DeadlineExceeded, 0).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError("db", errors.New("x"), 0).Status)
}
