package pid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegulateOutputBounds(t *testing.T) {
	c := New(DefaultConfig())
	c.SetTarget(480)

	// Every raw sample a 10-bit converter can produce must yield a duty
	// cycle in [0, 255].
	for s := 0; s <= 1023; s++ {
		out := c.Regulate(s)
		require.GreaterOrEqual(t, out, OutputMin, "sample %d", s)
		require.LessOrEqual(t, out, OutputMax, "sample %d", s)
	}
}

func TestIntegratorClampConstantError(t *testing.T) {
	c := New(DefaultConfig())
	c.SetTarget(480)

	// Adversarial constant error: the sensor never reaches the target.
	for i := 0; i < 10000; i++ {
		c.Regulate(600)
		require.GreaterOrEqual(t, c.integrator, c.cfg.IntegratorMin, "tick %d", i)
		require.LessOrEqual(t, c.integrator, c.cfg.IntegratorMax, "tick %d", i)
	}
	assert.Equal(t, c.cfg.IntegratorMin, c.integrator)

	// And the opposite direction.
	for i := 0; i < 10000; i++ {
		c.Regulate(100)
		require.GreaterOrEqual(t, c.integrator, c.cfg.IntegratorMin, "tick %d", i)
		require.LessOrEqual(t, c.integrator, c.cfg.IntegratorMax, "tick %d", i)
	}
	assert.Equal(t, c.cfg.IntegratorMax, c.integrator)
}

func TestSignConvention(t *testing.T) {
	// The sample is inversely proportional to temperature: a sample above
	// the target means the sensor is too cold and the heater must drive
	// hard; a sample below the target means it is already hot enough.
	cold := New(DefaultConfig())
	cold.SetTarget(480)
	assert.Equal(t, OutputMax, cold.Regulate(600), "cold sensor should saturate high")

	hot := New(DefaultConfig())
	hot.SetTarget(480)
	assert.Equal(t, OutputMin, hot.Regulate(300), "hot sensor should saturate low")
}

func TestLastPositionUpdatedEachTick(t *testing.T) {
	c := New(DefaultConfig())
	c.SetTarget(480)

	c.Regulate(500)
	assert.Equal(t, 500.0, c.lastPosition)
	c.Regulate(490)
	assert.Equal(t, 490.0, c.lastPosition)
}

func TestAtTargetSettles(t *testing.T) {
	c := New(DefaultConfig())
	c.SetTarget(480)

	// Holding exactly at target: error is zero, the derivative dies after
	// the first tick and only the (zero) integrator term remains.
	var out int
	for i := 0; i < 10; i++ {
		out = c.Regulate(480)
	}
	assert.Equal(t, 0, out)
	assert.Zero(t, c.integrator)
}

func TestTargetCarriesAcrossSetTarget(t *testing.T) {
	c := New(DefaultConfig())
	c.SetTarget(480)
	for i := 0; i < 300; i++ {
		c.Regulate(485)
	}
	wound := c.integrator

	// Recalibration sets a new target but deliberately keeps integrator
	// and last position.
	c.SetTarget(470)
	assert.Equal(t, 470, c.Target())
	assert.Equal(t, wound, c.integrator)
	assert.Equal(t, 485.0, c.lastPosition)
}
