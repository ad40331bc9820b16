package logging_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fivetwenty-io/tastypie-client/internal/logging"
)

func TestZapLogger_Levels(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.DebugLevel)
	logger := logging.NewZapLogger(zap.New(core))

	logger.Debug("HTTP Request", map[string]interface{}{"url": "http://h/api/1/", "method": "GET"})
	logger.Info("connected", nil)
	logger.Warn("API Response Error", map[string]interface{}{"status_code": 404})
	logger.Error("bridge failed", map[string]interface{}{"error": errors.New("boom")})

	entries := recorded.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "HTTP Request", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"method": "GET", "url": "http://h/api/1/"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, int64(404), entries[2].ContextMap()["status_code"])

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestNewZapLogger_NilIsNop(t *testing.T) {
	t.Parallel()

	logger := logging.NewZapLogger(nil)
	logger.Info("discarded", map[string]interface{}{"k": "v"})

	assert.NotNil(t, logger.Zap())
}

func TestNewDevelopment(t *testing.T) {
	t.Parallel()

	logger, err := logging.NewDevelopment(true)
	require.NoError(t, err)
	assert.True(t, logger.Zap().Core().Enabled(zapcore.DebugLevel))

	quiet, err := logging.NewDevelopment(false)
	require.NoError(t, err)
	assert.False(t, quiet.Zap().Core().Enabled(zapcore.InfoLevel))
}
