package log

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/qri-io/deepdiff-mcp/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		logger, err := New(config.Log{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("json", func(t *testing.T) {
		logger, err := New(config.Log{Level: "warn", Format: "json"})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("bad level", func(t *testing.T) {
		logger, err := New(config.Log{Level: "loud", Format: "console"})
		require.Error(t, err)
		assert.Nil(t, logger)
	})
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "deepdiff.log")
	logger, err := New(config.Log{Level: "info", Format: "console", File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	logger.Info("compared documents", zap.String("tool", "compare"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"compared documents"`)
	assert.Contains(t, string(data), `"tool":"compare"`)
}

func TestLogError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	LogError(logger, errors.New("boom"), "failed to compare", zap.String("tool", "compare"))
	LogError(logger, context.Canceled, "canceled")
	LogError(logger, fmt.Errorf("loading: %w", context.Canceled), "wrapped cancel")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "failed to compare", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "compare", fields["tool"])
	assert.Equal(t, "boom", fields["error"])
}
