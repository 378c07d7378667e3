package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "Memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	require.True(t, cfg.ReportsPublic)
	require.Equal(t, 10*time.Minute, cfg.DashboardCacheTTL)
	require.Equal(t, 5*time.Second, cfg.ReconcileTimeout)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "unknown store driver")

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "   ")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.Int("n", 1))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.True(t, strings.HasPrefix(out, "{"))
	require.Contains(t, out, `"msg":"shown"`)
}
