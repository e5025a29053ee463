package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/clock"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/config"
)

func TestClockTick(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 10, Total: 5, Interval: 0.5})
	assert.Equal(t, int32(10), c.InternalStep)
	assert.Equal(t, 5.0, c.T)
	assert.False(t, c.Done())

	for i := 0; i < 5; i++ {
		c.Tick()
	}
	assert.Equal(t, int32(15), c.InternalStep)
	assert.Equal(t, 7.5, c.T)
	assert.True(t, c.Done())
}

func TestClockString(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 3661, Total: 10, Interval: 1})
	assert.Equal(t, "01:01:01", c.String())
	h, m, s := c.GetHourMinuteSecond()
	assert.Equal(t, 1, h)
	assert.Equal(t, 1, m)
	assert.InDelta(t, 1.0, s, 1e-9)
}
