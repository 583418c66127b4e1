package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "WARN", " error "} {
		logger, err := New(lvl, false)
		require.NoError(t, err, lvl)
		require.NotNil(t, logger)
	}

	_, err := New("loud", false)
	assert.Error(t, err)
}

func TestNew_JSON(t *testing.T) {
	logger, err := New("info", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestAccountField_Truncates(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	zap.New(core).Info("hello", Account("AbCdEfGhIjKlMnOpQrSt"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "AbCdEfGh...", logs.All()[0].ContextMap()["account"])
}
