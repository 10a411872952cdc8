package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestFromSettings(t *testing.T) {
	dev := FromSettings("", true)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod := FromSettings("warn", false)
	assert.False(t, prod.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, prod.Core().Enabled(zapcore.WarnLevel))

	fallback := FromSettings("loud", false)
	assert.True(t, fallback.Core().Enabled(zapcore.InfoLevel))
}

func TestComponent(t *testing.T) {
	logger := NewDefault()
	assert.NotNil(t, logger.Component("session"))
}
