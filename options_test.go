package luasched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptionsDefaults(t *testing.T) {
	cfg, err := resolveOptions(nil)
	require.NoError(t, err)
	assert.NotNil(t, cfg.logger)
	assert.False(t, cfg.metricsEnabled)
	assert.Equal(t, 16, cfg.queueCapacityHint)
	assert.Equal(t, 32, cfg.recentErrorCap)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	logger := NewNoOpLogger()
	called := false
	cb := func(*CoroutineError) { called = true }

	cfg, err := resolveOptions([]Option{
		WithLogger(logger),
		WithErrorCallback(cb),
		WithMetrics(true),
		WithQueueCapacityHint(64),
		WithRecentErrorCapacity(0),
		nil, // nil options are ignored
	})
	require.NoError(t, err)
	assert.Equal(t, logger, cfg.logger)
	assert.True(t, cfg.metricsEnabled)
	assert.Equal(t, 64, cfg.queueCapacityHint)
	assert.Equal(t, 0, cfg.recentErrorCap)

	cfg.errorCallback(nil)
	assert.True(t, called)
}

func TestWithQueueCapacityHintIgnoresNonPositive(t *testing.T) {
	cfg, err := resolveOptions([]Option{WithQueueCapacityHint(0), WithQueueCapacityHint(-5)})
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.queueCapacityHint)
}
