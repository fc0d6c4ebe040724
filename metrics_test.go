package luasched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeMetricsDisabledReturnsNoCollectors(t *testing.T) {
	m := newRuntimeMetrics(false)
	assert.Nil(t, m.Collectors())
	// Calls against a disabled instance must be safe no-ops.
	m.onTick()
	m.onCoroutineError()
	m.observeDepths(1, 2, 3, 4)
}

func TestRuntimeMetricsEnabledExposesCollectors(t *testing.T) {
	m := newRuntimeMetrics(true)
	collectors := m.Collectors()
	assert.Len(t, collectors, 6)
	m.onTick()
	m.onCoroutineError()
	m.observeDepths(1, 2, 3, 4)
}
