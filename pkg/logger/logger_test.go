package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zap.AtomicLevel) *observer.ObservedLogs {
	t.Helper()
	core, recorded := observer.New(level)
	mu.Lock()
	globalLogger = zap.New(core)
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		globalLogger = zap.NewNop()
		mu.Unlock()
	})
	return recorded
}

func TestInitConfiguresGlobalLogger(t *testing.T) {
	t.Cleanup(func() {
		globalLogger = zap.NewNop()
	})

	require.NoError(t, Init("debug"))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("not-a-level", "console"))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))
	require.True(t, Logger().Core().Enabled(zap.InfoLevel))
}

func TestLoggingHelpersEmitEntries(t *testing.T) {
	recorded := observe(t, zap.NewAtomicLevelAt(zap.DebugLevel))

	Info("info message", zap.String("k", "v"))
	Error("error message")
	Warn("warn message")
	Debug("debug message")

	entries := recorded.All()
	require.Len(t, entries, 4)
	require.Equal(t, "info message", entries[0].Message)
	require.Equal(t, "debug message", entries[3].Message)
	require.Equal(t, "v", entries[0].ContextMap()["k"])
}

func TestWithOperationAttachesFields(t *testing.T) {
	recorded := observe(t, zap.NewAtomicLevelAt(zap.InfoLevel))

	WithOperation("tickets", "submit_complaint").Info("submitted")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "tickets", fields["module"])
	require.Equal(t, "submit_complaint", fields["operation"])
}

func TestReplaceRestoresPrevious(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	restore := Replace(zap.New(core))

	WithModule("tickets").Info("submitted")
	require.Equal(t, 1, recorded.Len())

	restore()
	Info("dropped")
	require.Equal(t, 1, recorded.Len())
}
